package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicely/internal/auth"
	authconfig "github.com/smallbiznis/invoicely/internal/auth/config"
	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	authoauth "github.com/smallbiznis/invoicely/internal/auth/oauth"
	"github.com/smallbiznis/invoicely/internal/auth/session"
	"github.com/smallbiznis/invoicely/internal/authorization"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"github.com/smallbiznis/invoicely/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicely/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicely/internal/observability/tracing"
	"github.com/smallbiznis/invoicely/internal/providers"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	invoice.Module,
	providers.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	invoicing   *config.InvoicingConfigHolder
	log         *zap.Logger
	authsvc     authdomain.Service
	oauthsvc    authoauth.Service
	providers   authconfig.AuthProviderRegistry
	sessions    *session.Manager
	authzSvc    authorization.Service
	authLimiter *ratelimit.AuthLimiter
	invoiceSvc  invoicedomain.Service
	renderer    render.Renderer
	pdf         pdf.Provider
	logos       *logo.Processor
	hub         *live.Hub
	obsMetrics  *obsmetrics.Metrics

	liveHeartbeat time.Duration
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Invoicing   *config.InvoicingConfigHolder
	Log         *zap.Logger
	Authsvc     authdomain.Service
	OAuthsvc    authoauth.Service
	Providers   authconfig.AuthProviderRegistry
	Sessions    *session.Manager
	AuthzSvc    authorization.Service
	AuthLimiter *ratelimit.AuthLimiter `optional:"true"`
	InvoiceSvc  invoicedomain.Service
	Renderer    render.Renderer
	PDF         pdf.Provider
	Logos       *logo.Processor
	Hub         *live.Hub           `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		invoicing:   p.Invoicing,
		log:         p.Log.Named("http.server"),
		authsvc:     p.Authsvc,
		oauthsvc:    p.OAuthsvc,
		providers:   p.Providers,
		sessions:    p.Sessions,
		authzSvc:    p.AuthzSvc,
		authLimiter: p.AuthLimiter,
		invoiceSvc:  p.InvoiceSvc,
		renderer:    p.Renderer,
		pdf:         p.PDF,
		logos:       p.Logos,
		hub:         p.Hub,
		obsMetrics:  p.ObsMetrics,

		liveHeartbeat: liveHeartbeatInterval,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerUIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.GET("/providers", s.AuthProviders)
	auth.POST("/signup", s.AuthRateLimit("signup"), s.Signup)
	auth.POST("/login", s.AuthRateLimit("login"), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.GET("/invoices/new", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.NewInvoice)
	api.GET("/invoices/stream", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.StreamInvoices)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	api.POST("/invoices/calculate", s.CalculateInvoice)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate), s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDelete), s.DeleteInvoice)
	api.POST("/invoices/:id/paid", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceSettle), s.MarkInvoicePaid)
	api.POST("/invoices/:id/unpaid", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceSettle), s.MarkInvoiceUnpaid)
	api.PUT("/invoices/:id/logo", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate), s.UploadInvoiceLogo)

	// -------- Exports --------
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceExport), s.ExportInvoicePDF)
	api.GET("/invoices/:id/receipt", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceExport), s.ExportReceiptPDF)
	api.GET("/invoices/:id/render", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceExport), s.RenderInvoice)

	// -------- Logos --------
	api.POST("/logos", s.ProcessLogo)

	// -------- Reports --------
	api.GET("/reports/overview", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetOverview)
}

func (s *Server) registerUIRoutes() {
	r := s.engine.Group("/")

	// ---- SPA entry points ----
	r.GET("/", s.serveIndex)
	r.GET("/login", s.redirectIfLoggedIn(), s.serveIndex)
	r.GET("/login/:name", s.OAuthLogin)
	r.POST("/login/:name", s.OAuthLogin)
	r.GET("/signup", s.redirectIfLoggedIn(), s.serveIndex)

	invoices := r.Group("/invoices", s.WebAuthRequired())
	{
		invoices.GET("", s.serveIndex)
		invoices.GET("/new", s.serveIndex)
		invoices.GET("/:id", s.serveIndex)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		// static assets (vite)
		if fileExists(s.cfg.PublicDir, c.Request.URL.Path) {
			c.File(filepath.Join(s.cfg.PublicDir, filepath.Clean(c.Request.URL.Path)))
			return
		}

		// SPA fallback
		s.serveIndex(c)
	})
}

func (s *Server) serveIndex(c *gin.Context) {
	c.File(filepath.Join(s.cfg.PublicDir, "index.html"))
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || clean == ".." {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
