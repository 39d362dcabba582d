package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig holds the document settings that can change without a restart.
type InvoicingConfig struct {
	NumberTemplate string     `mapstructure:"numberTemplate"`
	BlankLineItems int        `mapstructure:"blankLineItems"`
	Currency       string     `mapstructure:"currency"`
	Logo           LogoConfig `mapstructure:"logo"`
	PDF            PDFConfig  `mapstructure:"pdf"`
}

type LogoConfig struct {
	MaxWidth       uint  `mapstructure:"maxWidth"`
	MaxHeight      uint  `mapstructure:"maxHeight"`
	MaxUploadBytes int64 `mapstructure:"maxUploadBytes"`
}

type PDFConfig struct {
	Footer string `mapstructure:"footer"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		NumberTemplate: "INV-{YYYY}{MM}{DD}-{SEQ4}",
		BlankLineItems: 3,
		Logo: LogoConfig{
			MaxWidth:       100,
			MaxHeight:      100,
			MaxUploadBytes: 5 << 20,
		},
		PDF: PDFConfig{
			Footer: "Thank you for your business.",
		},
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	return newInvoicingConfigHolder(
		"/var/lib/invoicely/config", // Volume-mounted config
		"/etc/invoicely",            // System config
		".",                         // Current directory (dev mode)
	)
}

// NewStaticInvoicingConfigHolder returns a holder that never reloads.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(withInvoicingDefaults(cfg))
	return holder
}

func newInvoicingConfigHolder(paths ...string) (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("INVOICELY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.numberTemplate", defaults.NumberTemplate)
	v.SetDefault("invoicing.blankLineItems", defaults.BlankLineItems)
	v.SetDefault("invoicing.currency", defaults.Currency)
	v.SetDefault("invoicing.logo.maxWidth", defaults.Logo.MaxWidth)
	v.SetDefault("invoicing.logo.maxHeight", defaults.Logo.MaxHeight)
	v.SetDefault("invoicing.logo.maxUploadBytes", defaults.Logo.MaxUploadBytes)
	v.SetDefault("invoicing.pdf.footer", defaults.PDF.Footer)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoicing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	cfg, ok := h.current.Load().(InvoicingConfig)
	if !ok {
		return DefaultInvoicingConfig()
	}
	return cfg
}

func withInvoicingDefaults(cfg InvoicingConfig) InvoicingConfig {
	defaults := DefaultInvoicingConfig()
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		cfg.NumberTemplate = defaults.NumberTemplate
	}
	if cfg.BlankLineItems <= 0 {
		cfg.BlankLineItems = defaults.BlankLineItems
	}
	if cfg.Logo.MaxWidth == 0 {
		cfg.Logo.MaxWidth = defaults.Logo.MaxWidth
	}
	if cfg.Logo.MaxHeight == 0 {
		cfg.Logo.MaxHeight = defaults.Logo.MaxHeight
	}
	if cfg.Logo.MaxUploadBytes <= 0 {
		cfg.Logo.MaxUploadBytes = defaults.Logo.MaxUploadBytes
	}
	return cfg
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		return errors.New("invoicing.numberTemplate cannot be empty")
	}
	if cfg.BlankLineItems < 0 || cfg.BlankLineItems > 50 {
		return errors.New("invoicing.blankLineItems must be between 0 and 50")
	}
	if cfg.Logo.MaxWidth == 0 || cfg.Logo.MaxHeight == 0 {
		return errors.New("invoicing.logo bounds must be positive")
	}
	if cfg.Logo.MaxUploadBytes <= 0 {
		return errors.New("invoicing.logo.maxUploadBytes must be positive")
	}
	return nil
}
