package config

import (
	"sort"
	"strings"

	"github.com/smallbiznis/invoicely/internal/auth/features"
	"go.uber.org/zap"
)

// AuthProviderRegistry captures parsed providers and activation state.
type AuthProviderRegistry struct {
	All     map[string]AuthProviderConfig
	Active  map[string]AuthProviderConfig
	Ignored map[string]string
}

// BuildAuthProviderRegistry builds a registry from parsed provider configs.
func BuildAuthProviderRegistry(cfgs map[string]AuthProviderConfig, log *zap.Logger) AuthProviderRegistry {
	log = log.Named("auth.providers")
	registry := AuthProviderRegistry{
		All:     make(map[string]AuthProviderConfig, len(cfgs)),
		Active:  make(map[string]AuthProviderConfig),
		Ignored: make(map[string]string),
	}

	for key, cfg := range cfgs {
		cfg = normalizeProviderConfig(key, cfg)
		registry.All[cfg.Type] = cfg
	}

	for _, key := range sortedKeys(registry.All) {
		cfg := registry.All[key]
		if !cfg.Enabled {
			log.Info("provider disabled", zap.String("provider", cfg.Type))
			continue
		}
		if !features.ImplementedAuthFeatures[cfg.Type] {
			registry.Ignored[cfg.Type] = "enabled in config but feature not implemented"
			log.Warn("provider ignored", zap.String("provider", cfg.Type), zap.String("reason", "not implemented"))
			continue
		}
		if reason := missingCredentials(cfg); reason != "" {
			registry.Ignored[cfg.Type] = reason
			log.Warn("provider ignored", zap.String("provider", cfg.Type), zap.String("reason", reason))
			continue
		}
		registry.Active[cfg.Type] = cfg
		log.Info("provider active", zap.String("provider", cfg.Type))
	}

	return registry
}

// Views lists the active providers, local first, for the login page.
func (r AuthProviderRegistry) Views(localEnabled bool) []ProviderView {
	views := make([]ProviderView, 0, len(r.Active)+1)
	if localEnabled {
		views = append(views, ProviderView{Type: "local", Name: "Email"})
	}
	for _, key := range sortedKeys(r.Active) {
		cfg := r.Active[key]
		views = append(views, ProviderView{Type: cfg.Type, Name: cfg.Name})
	}
	return views
}

func missingCredentials(cfg AuthProviderConfig) string {
	if cfg.ClientID == "" {
		return "missing client id"
	}
	if cfg.Type == "apple" {
		if cfg.TeamID == "" || cfg.KeyID == "" || cfg.PrivateKey == "" {
			return "missing team id, key id or private key"
		}
		return ""
	}
	if cfg.ClientSecret == "" {
		return "missing client secret"
	}
	return ""
}

func normalizeProviderConfig(key string, cfg AuthProviderConfig) AuthProviderConfig {
	if cfg.Type == "" {
		cfg.Type = key
	}
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Name == "" {
		cfg.Name = cfg.Type
	}
	return cfg
}

func sortedKeys(m map[string]AuthProviderConfig) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
