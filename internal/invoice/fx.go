package invoice

import (
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"github.com/smallbiznis/invoicely/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	live.Module,
	fx.Provide(logo.NewProcessor),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
