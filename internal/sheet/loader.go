package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Input formats, keyed by lower-case filename extension.
const (
	FormatCSV  = "csv"
	FormatXLS  = "xls"
	FormatXLSX = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatOf returns the input format implied by the filename extension, or "".
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".xls":
		return FormatXLS
	case ".xlsx":
		return FormatXLSX
	}
	return ""
}

// Supported reports whether Load can read the given filename.
func Supported(filename string) bool {
	return FormatOf(filename) != ""
}

// Load parses data as the format implied by filename. Workbooks are read
// from their first sheet; the first row is always the header.
func Load(data []byte, filename string) (t *Table, err error) {
	format := FormatOf(filename)
	if format == "" {
		return nil, &ParseError{Format: filepath.Ext(filename), Err: ErrUnsupportedFormat}
	}

	// Workbook readers panic on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, &ParseError{Format: format, Err: fmt.Errorf("corrupt input: %v", r)}
		}
	}()

	var cells [][]Value
	switch format {
	case FormatCSV:
		cells, err = readCSV(data)
	case FormatXLS:
		cells, err = readXLS(data)
	case FormatXLSX:
		cells, err = readXLSX(data)
	}
	if err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	if len(cells) == 0 {
		return nil, &ParseError{Format: format, Err: errors.New("no header row")}
	}
	return buildTable(cells, format == FormatCSV)
}

func buildTable(cells [][]Value, strictWidth bool) (*Table, error) {
	header := cells[0]
	width := len(header)
	if !strictWidth {
		for _, row := range cells[1:] {
			width = max(width, len(row))
		}
	}

	names := make([]string, width)
	for i := range names {
		if i < len(header) {
			names[i] = header[i].String()
		}
	}

	rows := make([][]Value, 0, len(cells)-1)
	for n, raw := range cells[1:] {
		if blank(raw) {
			continue
		}
		if len(raw) > width {
			return nil, &ParseError{
				Format: FormatCSV,
				Err:    fmt.Errorf("line %d: expected %d fields, saw %d", n+2, width, len(raw)),
			}
		}
		row := make([]Value, width)
		copy(row, raw)
		rows = append(rows, row)
	}

	return &Table{Columns: normalizeHeader(names), Rows: rows}, nil
}

// normalizeHeader names blank columns "Unnamed: i" and suffixes repeated
// names with ".1", ".2", ... so that every column name is unique.
func normalizeHeader(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	suffix := make(map[string]int, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for used[candidate] {
			suffix[name]++
			candidate = name + "." + strconv.Itoa(suffix[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func readCSV(data []byte) ([][]Value, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1

	var rows [][]Value
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]Value, len(record))
		for i, field := range record {
			if field != "" {
				row[i] = StringValue(field)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]Value, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheetName := sheets[0]

	formatted, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	rows := make([][]Value, 0, len(formatted))
	for r, cols := range formatted {
		row := make([]Value, len(cols))
		for c, display := range cols {
			rawValue := display
			if r < len(raw) && c < len(raw[r]) {
				rawValue = raw[r][c]
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", cellName, err)
			}
			row[c] = workbookValue(cellType, display, rawValue)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// workbookValue classifies a cell. Text cells stay text even when they look
// numeric; other cells are Numbers only when both their stored and
// displayed forms are plain numbers, so dates and currencies keep their
// displayed text.
func workbookValue(cellType excelize.CellType, display, raw string) Value {
	if display == "" && raw == "" {
		return MissingValue()
	}
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula,
		excelize.CellTypeBool, excelize.CellTypeError:
		return StringValue(display)
	}
	return classify(display, raw)
}

func classify(display, raw string) Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if _, err := strconv.ParseFloat(display, 64); err == nil {
			return NumberValue(f)
		}
	}
	if display == "" {
		return StringValue(raw)
	}
	return StringValue(display)
}

func readXLS(data []byte) ([][]Value, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("failed to read first sheet")
	}

	rows := make([][]Value, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		r := sheetRow(ws, i)
		if r == nil {
			rows = append(rows, nil)
			continue
		}
		last := r.LastCol()
		row := make([]Value, max(last, 0))
		for c := range row {
			text := r.Col(c)
			if text == "" {
				continue
			}
			row[c] = classify(text, text)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sheetRow returns row i, or nil when the sheet holds no record for it.
func sheetRow(ws *xls.WorkSheet, i int) (r *xls.Row) {
	defer func() {
		if recover() != nil {
			r = nil
		}
	}()
	return ws.Row(i)
}

func blank(row []Value) bool {
	for _, v := range row {
		if !v.IsMissing() {
			return false
		}
	}
	return true
}
