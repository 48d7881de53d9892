// Package render lays out one spreadsheet record as an A4 PDF page with a
// QR code pointing at the record's tracking URL.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Lllllllleong/trackabledocs/internal/sheet"
)

// Epoch is the default timestamp written into documents. A fixed value keeps
// identical records rendering to identical bytes.
var Epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

const qrImageName = "qr"

// Document is one rendered record.
type Document struct {
	Data  []byte
	Pages int
}

// Renderer turns records into PDF documents. It holds no per-call state and
// is safe for concurrent use.
type Renderer struct {
	layout    Layout
	compress  bool
	timestamp time.Time
	creator   string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompression toggles content stream compression (on by default).
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

// WithTimestamp sets the creation and modification date of every document.
func WithTimestamp(t time.Time) Option {
	return func(r *Renderer) { r.timestamp = t }
}

// WithCreator sets the document's Creator metadata.
func WithCreator(name string) Option {
	return func(r *Renderer) { r.creator = name }
}

// NewRenderer returns a Renderer for the given layout.
func NewRenderer(layout Layout, opts ...Option) *Renderer {
	r := &Renderer{
		layout:    layout,
		compress:  true,
		timestamp: Epoch,
		creator:   "trackabledocs",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the renderer's page layout.
func (r *Renderer) Layout() Layout {
	return r.layout
}

// Render composes the page for rec: title, one bordered row per field, the
// caption, the QR image and the tracking URL footer. With a core font family
// any text outside Windows-1252 fails with ErrUnencodable.
func (r *Renderer) Render(rec sheet.Record, qrPNG []byte, trackingURL string) (Document, error) {
	l := r.layout
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(r.timestamp)
	pdf.SetModificationDate(r.timestamp)
	pdf.SetCreator(r.creator, false)
	pdf.SetTitle(l.TitlePrefix+rec.Identifier, true)
	encode := setupFonts(pdf, l.FontFamily)

	var encErr error
	tr := func(s string) string {
		out, err := encode(s)
		if err != nil && encErr == nil {
			encErr = err
		}
		return out
	}

	pdf.AddPage()

	pdf.SetFont(l.FontFamily, "B", l.TitleSize)
	pdf.CellFormat(0, l.TitleHeight, tr(l.TitlePrefix+rec.Identifier), "", 1, "C", false, 0, "")
	pdf.Ln(l.SectionGap)

	pdf.SetFillColor(l.LabelFill.R, l.LabelFill.G, l.LabelFill.B)
	for _, field := range rec.Fields {
		pdf.SetFont(l.FontFamily, "B", l.BodySize)
		pdf.CellFormat(l.LabelWidth, l.RowHeight, tr(field.Name+":"), "1", 0, "L", true, 0, "")
		pdf.SetFont(l.FontFamily, "", l.BodySize)
		pdf.CellFormat(l.ValueWidth, l.RowHeight, tr(field.Value.Display(l.Placeholder)), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(l.SectionGap)

	pdf.SetFont(l.FontFamily, "", l.CaptionSize)
	pdf.CellFormat(0, l.LineHeight, tr(l.Caption), "", 1, "C", false, 0, "")

	imageOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImageName, imageOpts, bytes.NewReader(qrPNG))
	pageWidth, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.ImageOptions(qrImageName, (pageWidth-l.QRSize)/2, y, l.QRSize, l.QRSize, false, imageOpts, 0, "")
	pdf.SetY(y + l.QRSize + l.QRGap)

	pdf.SetFont(l.FontFamily, "I", l.FooterSize)
	pdf.SetTextColor(l.FooterColor.R, l.FooterColor.G, l.FooterColor.B)
	pdf.CellFormat(0, l.LineHeight, tr(l.FooterPrefix+trackingURL), "", 1, "C", false, 0, "")

	if encErr != nil {
		return Document{}, fmt.Errorf("failed to lay out document %q: %w", rec.Identifier, encErr)
	}
	if err := pdf.Error(); err != nil {
		return Document{}, fmt.Errorf("failed to lay out document %q: %w", rec.Identifier, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("failed to serialize document %q: %w", rec.Identifier, err)
	}
	return Document{Data: buf.Bytes(), Pages: pdf.PageCount()}, nil
}
