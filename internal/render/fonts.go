package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/encoding/charmap"
)

// EmbeddedFamily names the Go font faces embedded in every document. They
// are written as UTF-8 and cover Latin, Greek and Cyrillic text.
const EmbeddedFamily = "Go"

// ErrUnencodable is returned when a core font family is configured and a
// text contains characters outside the Windows-1252 code page.
var ErrUnencodable = errors.New("text cannot be encoded for core font")

var coreFamilies = map[string]bool{
	"arial":     true,
	"courier":   true,
	"helvetica": true,
	"times":     true,
}

func isEmbedded(family string) bool {
	return strings.EqualFold(family, EmbeddedFamily)
}

func knownFamily(family string) bool {
	return isEmbedded(family) || coreFamilies[strings.ToLower(family)]
}

// textEncoder converts a string into what fpdf expects for the active font.
type textEncoder func(string) (string, error)

// setupFonts registers the layout's font family and returns its encoder.
// Embedded faces take UTF-8 unchanged; core fonts need Windows-1252 bytes.
func setupFonts(pdf *fpdf.Fpdf, family string) textEncoder {
	if isEmbedded(family) {
		pdf.AddUTF8FontFromBytes(EmbeddedFamily, "", goregular.TTF)
		pdf.AddUTF8FontFromBytes(EmbeddedFamily, "B", gobold.TTF)
		pdf.AddUTF8FontFromBytes(EmbeddedFamily, "I", goitalic.TTF)
		return func(s string) (string, error) { return s, nil }
	}
	enc := charmap.Windows1252.NewEncoder()
	return func(s string) (string, error) {
		out, err := enc.String(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnencodable, s)
		}
		return out, nil
	}
}
