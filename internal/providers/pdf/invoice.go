package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"go.uber.org/zap"
)

var headerBackground = &props.Color{Red: 235, Green: 238, Blue: 242}

type PDFProvider struct {
	log *zap.Logger
}

func New(log *zap.Logger) Provider {
	return &PDFProvider{log: log.Named("pdf.provider")}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, doc render.Document) (io.Reader, error) {
	m := p.newDocument()

	p.addTitle(m, "INVOICE", doc)
	addParties(m, doc)
	addMeta(m,
		"Invoice number: "+doc.Number,
		"Invoice date: "+doc.InvoiceDate,
		"Due date: "+doc.DueDate,
	)
	addItems(m, doc)

	addTotal(m, "Sub total", doc.SubTotal, false)
	addTotal(m, "Discount", doc.TotalDiscount, false)
	addTotal(m, "VAT", doc.TotalVat, false)
	addTotal(m, "Total Due", doc.Total, true)
	addTotal(m, "Paid", doc.Paid, false)
	addTotal(m, "Balance Due", doc.BalanceDue, true)
	addFooter(m, doc.Footer)

	return generate(m)
}

func (p *PDFProvider) newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

// addTitle writes the heading with the logo top-right. A logo that fails to
// decode is left out rather than failing the export.
func (p *PDFProvider) addTitle(m core.Maroto, title string, doc render.Document) {
	heading := text.NewCol(8, title, props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Left,
	})
	if doc.Logo == "" {
		m.AddRow(30, heading, col.New(4))
		return
	}

	raw, err := logo.Decode(string(doc.Logo))
	if err != nil {
		p.log.Warn("skip invoice logo", zap.String("invoice_number", doc.Number), zap.Error(err))
		m.AddRow(30, heading, col.New(4))
		return
	}
	m.AddRow(30,
		heading,
		col.New(1),
		image.NewFromBytesCol(3, raw, extension.Png, props.Rect{
			Center:  false,
			Percent: 90,
		}),
	)
}

func addParties(m core.Maroto, doc render.Document) {
	m.AddRow(36,
		col.New(6).Add(
			text.New("From", props.Text{Style: fontstyle.Bold}),
			text.New(doc.CompanyName, props.Text{Top: 5}),
			text.New(doc.YourName, props.Text{Top: 10}),
			text.New(labelled("TRN", doc.TRN), props.Text{Top: 15}),
			text.New(doc.Address, props.Text{Top: 20}),
			text.New(doc.CityState, props.Text{Top: 25}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.Client.Company, props.Text{Top: 5}),
			text.New(doc.Client.Name, props.Text{Top: 10}),
			text.New(labelled("TRN", doc.Client.TRN), props.Text{Top: 15}),
			text.New(doc.Client.Address, props.Text{Top: 20}),
			text.New(doc.ClientCityLine, props.Text{Top: 25}),
		),
	)
}

func addMeta(m core.Maroto, lines ...string) {
	c := col.New(12)
	for i, l := range lines {
		c.Add(text.New(l, props.Text{Top: float64(i * 5)}))
	}
	m.AddRow(float64(len(lines)*5+4), c)
}

func addItems(m core.Maroto, doc render.Document) {
	header := props.Text{Style: fontstyle.Bold, Size: 9, Top: 1.5}
	headerRight := header
	headerRight.Align = align.Right

	m.AddRow(8,
		text.NewCol(4, "Item", header),
		text.NewCol(2, "Quantity", headerRight),
		text.NewCol(2, "Rate", headerRight),
		text.NewCol(1, "Discount %", headerRight),
		text.NewCol(1, "VAT %", headerRight),
		text.NewCol(2, "Total", headerRight),
	).WithStyle(&props.Cell{BackgroundColor: headerBackground})

	cell := props.Text{Size: 9, Top: 1.5}
	right := cell
	right.Align = align.Right
	for _, row := range doc.Rows {
		m.AddRow(8,
			text.NewCol(4, row.Description, cell),
			text.NewCol(2, row.Quantity, right),
			text.NewCol(2, row.Rate, right),
			text.NewCol(1, row.Discount, right),
			text.NewCol(1, row.Vat, right),
			text.NewCol(2, row.Total, right),
		)
	}
	m.AddRow(4, line.NewCol(12))
}

func addTotal(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(7,
		col.New(7),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(3, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}

func addFooter(m core.Maroto, footer string) {
	if footer == "" {
		return
	}
	m.AddRow(16,
		text.NewCol(12, footer, props.Text{Size: 9, Top: 8, Align: align.Center}),
	)
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
