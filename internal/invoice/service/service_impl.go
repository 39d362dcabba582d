package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/invoicely/internal/invoice/format"
	"github.com/smallbiznis/invoicely/internal/invoice/listing"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/invoice/report"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/internal/usercontext"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/smallbiznis/invoicely/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    *config.InvoicingConfigHolder
	Logos     *logo.Processor
	Publisher live.Publisher      `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	cfg         *config.InvoicingConfigHolder
	logos       *logo.Processor
	publisher   live.Publisher
	metrics     *obsmetrics.Metrics
	invoicerepo repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Config,
		logos: p.Logos,

		publisher:   p.Publisher,
		metrics:     p.Metrics,
		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) Draft(ctx context.Context) (*invoicedomain.Invoice, error) {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.invoicerepo.Count(ctx, &invoicedomain.Invoice{UserID: userID})
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Get()
	now := s.clock.Now()
	number, err := invoiceformat.InvoiceNumber(cfg.NumberTemplate, now, count+1)
	if err != nil {
		s.log.Warn("invoice number template failed, using default", zap.Error(err))
		number, err = invoiceformat.InvoiceNumber(invoiceformat.DefaultInvoiceNumberTemplate, now, count+1)
		if err != nil {
			return nil, err
		}
	}

	return &invoicedomain.Invoice{
		UserID: userID,
		Details: invoicedomain.Details{
			InvoiceNumber: number,
			InvoiceDate:   now.Format(time.DateOnly),
		},
		Items: datatypes.NewJSONType(invoicedomain.BlankItems(cfg.BlankLineItems)),
	}, nil
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	logoURL, err := s.logos.ProcessDataURL(req.Logo)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:          s.genID.Generate(),
		UserID:      userID,
		CompanyName: strings.TrimSpace(req.CompanyName),
		YourName:    strings.TrimSpace(req.YourName),
		TRN:         strings.TrimSpace(req.TRN),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		Client:      trimParty(req.Client),
		Details:     trimDetails(req.InvoiceDetails),
		Items:       datatypes.NewJSONType(invoicedomain.CompactItems(req.Items)),
		Paid:        req.Paid.Decimal(),
		Logo:        logoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateInvoice(invoice); err != nil {
		return nil, err
	}
	invoice.Recompute()

	if err := s.invoicerepo.Create(ctx, &invoice); err != nil {
		return nil, err
	}

	s.changed(ctx, &invoice, live.OpCreated)
	return &invoice, nil
}

func (s *Service) Get(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return load(ctx, s.invoicerepo, userID, id)
}

// Update applies the set fields of req. When the line items change and req
// carries no paid amount, an invoice that was settled stays settled.
func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	var logoURL *string
	if req.Logo != nil {
		processed, err := s.logos.ProcessDataURL(*req.Logo)
		if err != nil {
			return nil, err
		}
		logoURL = &processed
	}

	return s.mutate(ctx, id, func(invoice *invoicedomain.Invoice) error {
		previous := invoice.Settlement()

		applyString(&invoice.CompanyName, req.CompanyName)
		applyString(&invoice.YourName, req.YourName)
		applyString(&invoice.TRN, req.TRN)
		applyString(&invoice.Address, req.Address)
		applyString(&invoice.City, req.City)
		applyString(&invoice.State, req.State)
		if req.Client != nil {
			invoice.Client = trimParty(*req.Client)
		}
		if req.InvoiceDetails != nil {
			invoice.Details = trimDetails(*req.InvoiceDetails)
		}
		if req.Items != nil {
			invoice.Items = datatypes.NewJSONType(invoicedomain.CompactItems(*req.Items))
		}
		if logoURL != nil {
			invoice.Logo = *logoURL
		}

		var paid *decimal.Decimal
		if req.Paid != nil {
			value := req.Paid.Decimal()
			paid = &value
		}
		settlement := calc.Reprice(previous, invoice.Summary().Total, paid)
		invoice.Paid = settlement.Paid

		return validateInvoice(*invoice)
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	removed, err := s.invoicerepo.Delete(ctx, &invoicedomain.Invoice{ID: invoiceID, UserID: userID})
	if err != nil {
		return err
	}
	if removed == 0 {
		return invoicedomain.ErrInvoiceNotFound
	}

	s.changed(ctx, &invoicedomain.Invoice{ID: invoiceID, UserID: userID}, live.OpDeleted)
	return nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	return s.settle(ctx, id, func(total decimal.Decimal) decimal.Decimal { return total })
}

func (s *Service) MarkUnpaid(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	return s.settle(ctx, id, func(decimal.Decimal) decimal.Decimal { return decimal.Zero })
}

func (s *Service) SetLogo(ctx context.Context, id string, dataURL string) (*invoicedomain.Invoice, error) {
	logoURL, err := s.logos.ProcessDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(invoice *invoicedomain.Invoice) error {
		invoice.Logo = logoURL
		return nil
	})
}

func (s *Service) List(ctx context.Context, query invoicedomain.ListQuery) ([]invoicedomain.Invoice, error) {
	invoices, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Apply(invoices, query), nil
}

// Snapshot returns every invoice of the current user in creation order.
func (s *Service) Snapshot(ctx context.Context) ([]invoicedomain.Invoice, error) {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.invoicerepo.Find(ctx, &invoicedomain.Invoice{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

// Overview builds the home page figures. A zero year means the current one.
func (s *Service) Overview(ctx context.Context, year int) (invoicedomain.Overview, error) {
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if year < 1 || year > 9999 {
		return invoicedomain.Overview{}, invoicedomain.ErrInvalidYear
	}

	invoices, err := s.Snapshot(ctx)
	if err != nil {
		return invoicedomain.Overview{}, err
	}
	return report.Build(invoices, year, now), nil
}

// Calculate prices an unsaved form. It keeps a settled form settled when the
// caller reports it was fully paid and sends no paid amount.
func (s *Service) Calculate(req invoicedomain.CalculateRequest) invoicedomain.CalculateResult {
	result := invoicedomain.CalculateResult{
		Lines: make([]calc.LineResult, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		result.Lines = append(result.Lines, calc.Compute(item.Line()))
	}

	draft := invoicedomain.Invoice{Items: datatypes.NewJSONType(req.Items)}
	result.Summary = draft.Summary()

	paid := req.Paid.Decimal()
	if req.WasFullyPaid && req.Paid.IsBlank() {
		paid = result.Summary.Total
	}
	draft.Paid = paid

	settlement := draft.Settlement()
	result.Paid = settlement.Paid
	result.BalanceDue = settlement.BalanceDue
	result.Status = draft.Status()
	return result
}

func (s *Service) settle(ctx context.Context, id string, paidFor func(total decimal.Decimal) decimal.Decimal) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, id, func(invoice *invoicedomain.Invoice) error {
		invoice.Paid = paidFor(invoice.Summary().Total)
		return nil
	})
}

// mutate loads, edits and saves one invoice of the current user inside a
// transaction. The change is published only after the commit.
func (s *Service) mutate(ctx context.Context, id string, apply func(*invoicedomain.Invoice) error) (*invoicedomain.Invoice, error) {
	userID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var saved *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.invoicerepo.WithTrx(tx)
		invoice, err := load(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		if err := apply(invoice); err != nil {
			return err
		}
		invoice.Recompute()
		invoice.UpdatedAt = s.clock.Now()
		if err := repo.Save(ctx, invoice); err != nil {
			return err
		}
		saved = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, saved, live.OpUpdated)
	return saved, nil
}

func load(ctx context.Context, repo repository.Repository[invoicedomain.Invoice], userID snowflake.ID, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := repo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID, UserID: userID})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return item, nil
}

func (s *Service) changed(ctx context.Context, invoice *invoicedomain.Invoice, op string) {
	s.metrics.RecordInvoiceChange(ctx, op)
	logger.WithContext(ctx, s.log).Debug("invoice changed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("operation", op),
	)
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, live.NewChange(invoice.UserID.String(), invoice.ID.String(), op, s.clock.Now()))
}

func (s *Service) ownerFromContext(ctx context.Context) (snowflake.ID, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, invoicedomain.ErrInvalidOwner
	}
	return userID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func applyString(dst *string, value *string) {
	if value == nil {
		return
	}
	*dst = strings.TrimSpace(*value)
}

func trimParty(p invoicedomain.Party) invoicedomain.Party {
	return invoicedomain.Party{
		Company: strings.TrimSpace(p.Company),
		Name:    strings.TrimSpace(p.Name),
		TRN:     strings.TrimSpace(p.TRN),
		Address: strings.TrimSpace(p.Address),
		City:    strings.TrimSpace(p.City),
		State:   strings.TrimSpace(p.State),
	}
}

func trimDetails(d invoicedomain.Details) invoicedomain.Details {
	return invoicedomain.Details{
		InvoiceNumber: strings.TrimSpace(d.InvoiceNumber),
		InvoiceDate:   strings.TrimSpace(d.InvoiceDate),
		DueDate:       strings.TrimSpace(d.DueDate),
	}
}
