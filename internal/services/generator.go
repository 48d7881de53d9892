package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Lllllllleong/trackabledocs/internal/archive"
	"github.com/Lllllllleong/trackabledocs/internal/pdfcheck"
	"github.com/Lllllllleong/trackabledocs/internal/qr"
	"github.com/Lllllllleong/trackabledocs/internal/render"
	"github.com/Lllllllleong/trackabledocs/internal/sheet"
)

const (
	// EntrySuffix is appended to the identifier to name each archive entry.
	EntrySuffix = "_rastreavel.pdf"
	// ArchiveFilename is the name under which the zip is delivered.
	ArchiveFilename = "documentos_rastreaveis.zip"
)

// QREncoder turns a tracking URL into a PNG image.
type QREncoder interface {
	Encode(payload string) ([]byte, error)
}

// DocumentRenderer lays out one record as a PDF.
type DocumentRenderer interface {
	Render(rec sheet.Record, qrPNG []byte, trackingURL string) (render.Document, error)
}

// DocumentInspector validates a rendered PDF.
type DocumentInspector interface {
	Inspect(data []byte) (pdfcheck.Report, error)
}

// Entry describes one document written to the archive.
type Entry struct {
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	TrackingURL string `json:"trackingUrl"`
	Size        int    `json:"size"`
	Pages       int    `json:"pages"`
}

// Result is a finished batch: the zip plus a manifest of its entries.
type Result struct {
	Archive []byte
	Entries []Entry
}

// Pages sums the page counts of every entry.
func (r *Result) Pages() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Pages
	}
	return total
}

// Generator converts a spreadsheet into an archive of trackable documents.
type Generator struct {
	encoder   QREncoder
	renderer  DocumentRenderer
	inspector DocumentInspector
	modified  time.Time
}

type GeneratorOption func(*Generator)

func WithEncoder(e QREncoder) GeneratorOption {
	return func(g *Generator) { g.encoder = e }
}

func WithRenderer(r DocumentRenderer) GeneratorOption {
	return func(g *Generator) { g.renderer = r }
}

// WithInspector validates every rendered document before it is archived.
func WithInspector(i DocumentInspector) GeneratorOption {
	return func(g *Generator) { g.inspector = i }
}

// WithArchiveTime sets the modification time stamped on archive entries.
func WithArchiveTime(t time.Time) GeneratorOption {
	return func(g *Generator) { g.modified = t }
}

// NewGenerator returns a Generator using the default QR encoder and layout.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		encoder:  qr.NewEncoder(),
		renderer: render.NewRenderer(render.DefaultLayout()),
		modified: render.Epoch,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeneratorFromSettings builds a Generator from the optional layout file
// and inspection switch shared by every entry point.
func NewGeneratorFromSettings(layoutFile string, validate bool) (*Generator, error) {
	layout := render.DefaultLayout()
	if layoutFile != "" {
		var err error
		if layout, err = render.LoadLayout(layoutFile); err != nil {
			return nil, fmt.Errorf("failed to load layout: %w", err)
		}
	}
	opts := []GeneratorOption{WithRenderer(render.NewRenderer(layout))}
	if validate {
		opts = append(opts, WithInspector(pdfcheck.NewInspector(false)))
	}
	return NewGenerator(opts...), nil
}

// Process loads and validates the spreadsheet, renders one document per
// row and bundles them in row order. Client faults come back as
// *sheet.ParseError or *sheet.ValidationError; everything else as
// *UnexpectedError. No partial result is ever returned.
func (g *Generator) Process(ctx context.Context, data []byte, filename, baseURL string) (res *Result, err error) {
	logCtx := slog.With("filename", filename)
	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Recovered from panic during document generation.", "panic", r, "stack", string(debug.Stack()))
			res, err = nil, &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	table, err := sheet.Load(data, filename)
	if err != nil {
		logCtx.Warn("Rejected unreadable spreadsheet.", "error", err)
		return nil, err
	}
	if err := sheet.Validate(table); err != nil {
		logCtx.Warn("Rejected invalid spreadsheet.", "error", err)
		return nil, err
	}
	logCtx = logCtx.With("rows", table.Len(), "columns", len(table.Columns))
	logCtx.Info("Spreadsheet loaded and validated.")

	builder := archive.NewBuilder(g.modified)
	entries := make([]Entry, 0, table.Len())
	firstSeen := make(map[string]int, table.Len())

	for i := 0; i < table.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, unexpected(logCtx, "document generation cancelled", err)
		}
		rec := table.Record(i)
		row := i + 1

		entry, err := g.generate(builder, rec, baseURL)
		if err != nil {
			return nil, unexpected(logCtx, "failed to generate document", fmt.Errorf("row %d (%q): %w", row, rec.Identifier, err))
		}
		if first, dup := firstSeen[entry.Name]; dup {
			logCtx.Warn("Duplicate identifier, archive will contain repeated entry names.", "identifier", rec.Identifier, "firstRow", first, "row", row)
		} else {
			firstSeen[entry.Name] = row
		}
		if entry.Pages > 1 {
			logCtx.Warn("Document does not fit on one page.", "identifier", rec.Identifier, "pages", entry.Pages)
		}
		entries = append(entries, entry)
	}

	archiveBytes, err := builder.Finish()
	if err != nil {
		return nil, unexpected(logCtx, "failed to finalize archive", err)
	}
	logCtx.Info("Archive assembled.", "documents", len(entries), "archiveBytes", len(archiveBytes))
	return &Result{Archive: archiveBytes, Entries: entries}, nil
}

func (g *Generator) generate(builder *archive.Builder, rec sheet.Record, baseURL string) (Entry, error) {
	trackingURL := baseURL + rec.Identifier
	png, err := g.encoder.Encode(trackingURL)
	if err != nil {
		return Entry{}, err
	}
	doc, err := g.renderer.Render(rec, png, trackingURL)
	if err != nil {
		return Entry{}, err
	}
	if g.inspector != nil {
		report, err := g.inspector.Inspect(doc.Data)
		if err != nil {
			return Entry{}, err
		}
		doc.Pages = report.Pages
	}
	name := rec.Identifier + EntrySuffix
	if err := builder.Add(name, doc.Data); err != nil {
		return Entry{}, err
	}
	return Entry{
		Name:        name,
		Identifier:  rec.Identifier,
		TrackingURL: trackingURL,
		Size:        len(doc.Data),
		Pages:       doc.Pages,
	}, nil
}

func unexpected(logCtx *slog.Logger, message string, cause error) error {
	logCtx.Error(message, "error", cause)
	return &UnexpectedError{Err: fmt.Errorf("%s: %w", message, cause)}
}
