package logo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeBounds(t *testing.T, dataURL string) image.Rectangle {
	t.Helper()
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
	raw, err := Decode(dataURL)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img.Bounds()
}

func newProcessor() *Processor {
	return NewProcessor(config.NewStaticInvoicingConfigHolder(config.InvoicingConfig{}))
}

func TestProcessFitsBoundingBox(t *testing.T) {
	out, err := newProcessor().Process(bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)

	b := decodeBounds(t, out)
	assert.Equal(t, 100, b.Dx())
	assert.Equal(t, 50, b.Dy())
}

func TestProcessDoesNotUpscale(t *testing.T) {
	out, err := newProcessor().Process(bytes.NewReader(pngBytes(t, 40, 20)))
	require.NoError(t, err)

	b := decodeBounds(t, out)
	assert.Equal(t, 40, b.Dx())
	assert.Equal(t, 20, b.Dy())
}

func TestProcessRejectsNonImage(t *testing.T) {
	_, err := newProcessor().Process(strings.NewReader("not an image"))
	assert.True(t, errors.Is(err, domain.ErrInvalidLogo))
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	p := NewProcessor(config.NewStaticInvoicingConfigHolder(config.InvoicingConfig{
		Logo: config.LogoConfig{MaxUploadBytes: 10},
	}))

	_, err := p.Process(bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestProcessDataURL(t *testing.T) {
	in := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 300, 300))

	out, err := newProcessor().ProcessDataURL(in)
	require.NoError(t, err)
	b := decodeBounds(t, out)
	assert.Equal(t, 100, b.Dx())
	assert.Equal(t, 100, b.Dy())

	cleared, err := newProcessor().ProcessDataURL("  ")
	require.NoError(t, err)
	assert.Empty(t, cleared)

	_, err = newProcessor().ProcessDataURL("https://example.com/logo.png")
	assert.ErrorIs(t, err, domain.ErrInvalidLogo)
}
