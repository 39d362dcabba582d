package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AUTH_COOKIE_SECURE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("RATE_LIMIT_LOGIN_BURST", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.AuthCookieSecure)
	assert.Equal(t, 10, cfg.RateLimit.LoginBurst)
	assert.Equal(t, int64(1), cfg.SnowflakeNode)
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()

	assert.True(t, cfg.AuthCookieSecure)
	assert.True(t, cfg.IsProduction())
}

func TestGetenvFallbacks(t *testing.T) {
	t.Setenv("INVOICELY_TEST_BOOL", "maybe")
	t.Setenv("INVOICELY_TEST_INT", "abc")
	t.Setenv("INVOICELY_TEST_FLOAT", "1.5")

	assert.True(t, getenvBool("INVOICELY_TEST_BOOL", true))
	assert.Equal(t, 7, getenvInt("INVOICELY_TEST_INT", 7))
	assert.Equal(t, 1.5, getenvFloat("INVOICELY_TEST_FLOAT", 0))
}

func TestInvoicingConfigDefaultsWithoutFile(t *testing.T) {
	holder, err := newInvoicingConfigHolder(t.TempDir())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, DefaultInvoicingConfig(), cfg)
}

func TestInvoicingConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`invoicing:
  numberTemplate: "ACME-{YY}-{SEQ3}"
  blankLineItems: 5
  currency: "AED"
  logo:
    maxWidth: 120
    maxHeight: 80
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoicing.yml"), content, 0o600))

	holder, err := newInvoicingConfigHolder(dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "ACME-{YY}-{SEQ3}", cfg.NumberTemplate)
	assert.Equal(t, 5, cfg.BlankLineItems)
	assert.Equal(t, "AED", cfg.Currency)
	assert.Equal(t, uint(120), cfg.Logo.MaxWidth)
	assert.Equal(t, uint(80), cfg.Logo.MaxHeight)
	assert.Equal(t, int64(5<<20), cfg.Logo.MaxUploadBytes)
}

func TestInvoicingConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`invoicing:
  numberTemplate: "   "
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoicing.yml"), content, 0o600))

	_, err := newInvoicingConfigHolder(dir)
	assert.Error(t, err)
}

func TestStaticHolderFillsDefaults(t *testing.T) {
	holder := NewStaticInvoicingConfigHolder(InvoicingConfig{Currency: "USD"})

	cfg := holder.Get()
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 3, cfg.BlankLineItems)
	assert.Equal(t, uint(100), cfg.Logo.MaxWidth)
}

func TestLoadObservabilitySettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "")

	obs := Load().Observability

	assert.Equal(t, "debug", obs.LogLevel)
	assert.Equal(t, "json", obs.LogFormat)
	assert.False(t, obs.OtelEnabled)
	assert.Equal(t, "http", obs.OtlpProtocol)
	assert.Equal(t, 0.1, obs.SamplingRatio)
}
