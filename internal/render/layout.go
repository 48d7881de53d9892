package render

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// MaxLayoutSize limits layout files to prevent memory exhaustion.
const MaxLayoutSize = 1 << 20

var (
	ErrLayoutTooLarge = errors.New("layout file exceeds maximum size")
	ErrInvalidLayout  = errors.New("invalid layout")
)

// RGB is a color with 0-255 components.
type RGB struct {
	R int `yaml:"r"`
	G int `yaml:"g"`
	B int `yaml:"b"`
}

func (c RGB) valid() bool {
	in := func(v int) bool { return v >= 0 && v <= 255 }
	return in(c.R) && in(c.G) && in(c.B)
}

// Layout holds the texts and measurements of a document page. Sizes are in
// millimetres, font sizes in points.
type Layout struct {
	FontFamily string `yaml:"fontFamily"`

	TitlePrefix string  `yaml:"titlePrefix"`
	TitleSize   float64 `yaml:"titleSize"`
	TitleHeight float64 `yaml:"titleHeight"`

	BodySize    float64 `yaml:"bodySize"`
	LabelWidth  float64 `yaml:"labelWidth"`
	ValueWidth  float64 `yaml:"valueWidth"`
	RowHeight   float64 `yaml:"rowHeight"`
	LabelFill   RGB     `yaml:"labelFill"`
	Placeholder string  `yaml:"placeholder"`

	SectionGap float64 `yaml:"sectionGap"`

	Caption     string  `yaml:"caption"`
	CaptionSize float64 `yaml:"captionSize"`
	LineHeight  float64 `yaml:"lineHeight"`

	QRSize float64 `yaml:"qrSize"`
	QRGap  float64 `yaml:"qrGap"`

	FooterPrefix string  `yaml:"footerPrefix"`
	FooterSize   float64 `yaml:"footerSize"`
	FooterColor  RGB     `yaml:"footerColor"`
}

// DefaultLayout returns the standard tracked-document page.
func DefaultLayout() Layout {
	return Layout{
		FontFamily:   EmbeddedFamily,
		TitlePrefix:  "Documento: ",
		TitleSize:    16,
		TitleHeight:  10,
		BodySize:     10,
		LabelWidth:   60,
		ValueWidth:   120,
		RowHeight:    8,
		LabelFill:    RGB{R: 230, G: 230, B: 230},
		Placeholder:  "N/A",
		SectionGap:   10,
		Caption:      "Escaneie o QR Code abaixo para verificar a autenticidade deste documento:",
		CaptionSize:  9,
		LineHeight:   6,
		QRSize:       50,
		QRGap:        4,
		FooterPrefix: "URL Única: ",
		FooterSize:   8,
		FooterColor:  RGB{R: 100, G: 100, B: 100},
	}
}

// Validate rejects layouts that cannot produce a readable page.
func (l Layout) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"titleSize", l.TitleSize},
		{"titleHeight", l.TitleHeight},
		{"bodySize", l.BodySize},
		{"labelWidth", l.LabelWidth},
		{"valueWidth", l.ValueWidth},
		{"rowHeight", l.RowHeight},
		{"captionSize", l.CaptionSize},
		{"lineHeight", l.LineHeight},
		{"qrSize", l.QRSize},
		{"footerSize", l.FooterSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidLayout, p.name, p.value)
		}
	}
	if l.SectionGap < 0 || l.QRGap < 0 {
		return fmt.Errorf("%w: gaps cannot be negative", ErrInvalidLayout)
	}
	if l.FontFamily == "" {
		return fmt.Errorf("%w: fontFamily is required", ErrInvalidLayout)
	}
	if !knownFamily(l.FontFamily) {
		return fmt.Errorf("%w: unknown fontFamily %q", ErrInvalidLayout, l.FontFamily)
	}
	if !l.LabelFill.valid() || !l.FooterColor.valid() {
		return fmt.Errorf("%w: color components must be within 0-255", ErrInvalidLayout)
	}
	return nil
}

// ParseLayout overlays YAML data on DefaultLayout. Unknown keys are rejected.
func ParseLayout(data []byte) (Layout, error) {
	layout := DefaultLayout()
	if len(data) > MaxLayoutSize {
		return layout, fmt.Errorf("%w: %d bytes (max %d)", ErrLayoutTooLarge, len(data), MaxLayoutSize)
	}
	if len(data) > 0 {
		if err := yaml.UnmarshalWithOptions(data, &layout, yaml.Strict()); err != nil {
			return layout, fmt.Errorf("failed to parse layout: %w", err)
		}
	}
	if err := layout.Validate(); err != nil {
		return layout, err
	}
	return layout, nil
}

// LoadLayout reads a layout file. An empty path yields DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultLayout(), fmt.Errorf("failed to read layout file %s: %w", path, err)
	}
	return ParseLayout(data)
}
