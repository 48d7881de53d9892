// Package pdfcheck validates generated documents with pdfcpu.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Generated documents only use core fonts, so pdfcpu never needs its
	// user config directory.
	api.DisableConfigDir()
}

// Report describes one inspected document.
type Report struct {
	Pages int
	Size  int
}

// Inspector validates PDFs and counts their pages.
type Inspector struct {
	conf *model.Configuration
}

// NewInspector returns an Inspector. Strict mode applies pdfcpu's full
// PDF 1.7 validation instead of the relaxed rules.
func NewInspector(strict bool) *Inspector {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if strict {
		conf.ValidationMode = model.ValidationStrict
	}
	return &Inspector{conf: conf}
}

// Inspect validates data and reports its page count.
func (i *Inspector) Inspect(data []byte) (Report, error) {
	if err := api.Validate(bytes.NewReader(data), i.conf); err != nil {
		return Report{}, fmt.Errorf("invalid PDF: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), i.conf)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get page count: %w", err)
	}
	return Report{Pages: pages, Size: len(data)}, nil
}
