// Package logo normalizes uploaded company logos into small PNG data URLs.
package logo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
)

const dataURLPrefix = "data:image/png;base64,"

var ErrTooLarge = errors.New("logo_too_large")

type Processor struct {
	cfg *config.InvoicingConfigHolder
}

func NewProcessor(cfg *config.InvoicingConfigHolder) *Processor {
	return &Processor{cfg: cfg}
}

// Process decodes an uploaded image, fits it into the configured box
// without upscaling, and returns it as a PNG data URL.
func (p *Processor) Process(r io.Reader) (string, error) {
	limits := p.cfg.Get().Logo

	raw, err := io.ReadAll(io.LimitReader(r, limits.MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read logo: %w", err)
	}
	if int64(len(raw)) > limits.MaxUploadBytes {
		return "", ErrTooLarge
	}
	return p.fit(raw, limits.MaxWidth, limits.MaxHeight)
}

// ProcessDataURL normalizes a logo that arrives already encoded as a data URL.
// An empty string clears the logo.
func (p *Processor) ProcessDataURL(dataURL string) (string, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return "", nil
	}
	raw, err := Decode(dataURL)
	if err != nil {
		return "", err
	}
	limits := p.cfg.Get().Logo
	if int64(len(raw)) > limits.MaxUploadBytes {
		return "", ErrTooLarge
	}
	return p.fit(raw, limits.MaxWidth, limits.MaxHeight)
}

func (p *Processor) fit(raw []byte, maxWidth, maxHeight uint) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidLogo, err)
	}

	thumb := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode logo: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode returns the image bytes of a base64 image data URL.
func Decode(dataURL string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:image/")
	if !ok {
		return nil, domain.ErrInvalidLogo
	}
	_, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, domain.ErrInvalidLogo
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidLogo, err)
	}
	return raw, nil
}
