package config

import (
	"os"
	"strings"
)

const (
	envPrefixGoogle = "AUTH_GOOGLE_"
	envPrefixApple  = "AUTH_APPLE_"
)

type providerEnvSpec struct {
	providerType string
	prefix       string
	displayName  string
	defaults     AuthProviderConfig
}

var providerSpecs = []providerEnvSpec{
	{
		providerType: "google",
		prefix:       envPrefixGoogle,
		displayName:  "Google",
		defaults: AuthProviderConfig{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
			APIURL:   "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:   []string{"openid", "email", "profile"},
		},
	},
	{
		providerType: "apple",
		prefix:       envPrefixApple,
		displayName:  "Apple",
		defaults: AuthProviderConfig{
			AuthURL:  "https://appleid.apple.com/auth/authorize",
			TokenURL: "https://appleid.apple.com/auth/token",
			Scopes:   []string{"name", "email"},
		},
	},
}

// ParseAuthProvidersFromEnv reads auth provider configuration from environment variables.
func ParseAuthProvidersFromEnv() map[string]AuthProviderConfig {
	env := os.Environ()
	configs := make(map[string]AuthProviderConfig, len(providerSpecs))
	for _, def := range providerSpecs {
		if !hasEnvPrefix(env, def.prefix) {
			continue
		}
		cfg := parseProviderConfig(def)
		configs[cfg.Type] = cfg
	}
	return configs
}

func parseProviderConfig(def providerEnvSpec) AuthProviderConfig {
	prefix := def.prefix
	name := strings.TrimSpace(getenv(prefix + "NAME"))
	if name == "" {
		name = def.displayName
	}
	scopes := parseScopes(getenv(prefix + "SCOPES"))
	if len(scopes) == 0 {
		scopes = def.defaults.Scopes
	}
	return AuthProviderConfig{
		Name:         name,
		Type:         def.providerType,
		Enabled:      getenvBool(prefix+"ENABLED", false),
		ClientID:     strings.TrimSpace(getenv(prefix + "CLIENT_ID")),
		ClientSecret: strings.TrimSpace(getenv(prefix + "CLIENT_SECRET")),
		AuthURL:      firstNonEmpty(getenv(prefix+"AUTH_URL"), def.defaults.AuthURL),
		TokenURL:     firstNonEmpty(getenv(prefix+"TOKEN_URL"), def.defaults.TokenURL),
		APIURL:       firstNonEmpty(getenv(prefix+"API_URL"), def.defaults.APIURL),
		Scopes:       scopes,
		AllowSignUp:  getenvBoolFirst([]string{prefix + "ALLOW_SIGNUP", prefix + "ALLOW_SIGN_UP"}, false),
		TeamID:       strings.TrimSpace(getenv(prefix + "TEAM_ID")),
		KeyID:        strings.TrimSpace(getenv(prefix + "KEY_ID")),
		// keys pasted into a single env line keep their newlines escaped
		PrivateKey: strings.ReplaceAll(strings.TrimSpace(getenv(prefix+"PRIVATE_KEY")), `\n`, "\n"),
	}
}

func getenv(key string) string {
	return os.Getenv(key)
}

func getenvBool(key string, def bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return parseBool(value, def)
}

func getenvBoolFirst(keys []string, def bool) bool {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			return parseBool(value, def)
		}
	}
	return def
}

func parseBool(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func parseScopes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(parts) == 0 {
		return nil
	}
	return parts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func hasEnvPrefix(env []string, prefix string) bool {
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}
