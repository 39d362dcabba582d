package auth

import (
	authconfig "github.com/smallbiznis/invoicely/internal/auth/config"
	"github.com/smallbiznis/invoicely/internal/auth/oauth"
	"github.com/smallbiznis/invoicely/internal/auth/repository"
	"github.com/smallbiznis/invoicely/internal/auth/service"
	"github.com/smallbiznis/invoicely/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	session.Module,
	oauth.Module,
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(authconfig.ParseAuthProvidersFromEnv),
	fx.Provide(authconfig.BuildAuthProviderRegistry),
)
