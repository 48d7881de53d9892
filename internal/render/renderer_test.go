package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/trackabledocs/internal/qr"
	"github.com/Lllllllleong/trackabledocs/internal/sheet"
)

func record(id string, fields ...sheet.Field) sheet.Record {
	all := append([]sheet.Field{{Name: sheet.IdentifierColumn, Value: sheet.StringValue(id)}}, fields...)
	return sheet.Record{Identifier: id, Fields: all}
}

func renderPlain(t *testing.T, rec sheet.Record, url string, opts ...Option) Document {
	t.Helper()
	png, err := qr.NewEncoder().Encode(url)
	require.NoError(t, err)
	opts = append([]Option{WithCompression(false)}, opts...)
	doc, err := NewRenderer(DefaultLayout(), opts...).Render(rec, png, url)
	require.NoError(t, err)
	return doc
}

// shown returns the content stream operand fpdf writes for s in an embedded
// UTF-8 font: big-endian UTF-16 inside an escaped literal string.
func shown(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`).Replace(string(b))
	return []byte("(" + escaped + ")Tj")
}

func TestRenderScenario(t *testing.T) {
	rec := record("DOC123", sheet.Field{Name: "Nome", Value: sheet.StringValue("Maria")})
	doc := renderPlain(t, rec, "http://x/doc/DOC123")

	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Equal(t, 1, doc.Pages)

	for _, want := range []string{
		"Documento: DOC123",
		"ID_UNICO:",
		"DOC123",
		"Nome:",
		"Maria",
		"URL Única: http://x/doc/DOC123",
	} {
		assert.True(t, bytes.Contains(doc.Data, shown(want)), "missing %q", want)
	}
}

func TestRenderNonLatinIdentifier(t *testing.T) {
	rec := record("ДОК1", sheet.Field{Name: "Имя", Value: sheet.StringValue("Мария (тест)")})
	doc := renderPlain(t, rec, "http://x/doc/ДОК1")

	for _, want := range []string{
		"Documento: ДОК1",
		"Имя:",
		"Мария (тест)",
		"URL Única: http://x/doc/ДОК1",
	} {
		assert.True(t, bytes.Contains(doc.Data, shown(want)), "missing %q", want)
	}
}

func TestRenderCoreFont(t *testing.T) {
	layout := DefaultLayout()
	layout.FontFamily = "Helvetica"
	png, err := qr.NewEncoder().Encode("http://x/doc/DOC1")
	require.NoError(t, err)
	r := NewRenderer(layout, WithCompression(false))

	doc, err := r.Render(record("DOC1"), png, "http://x/doc/DOC1")
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc.Data, []byte("(URL \xdanica: http://x/doc/DOC1)Tj")))

	_, err = r.Render(record("ДОК1"), png, "http://x/doc/ДОК1")
	assert.ErrorIs(t, err, ErrUnencodable)
}

func TestRenderMissingValueUsesPlaceholder(t *testing.T) {
	rec := record("DOC9",
		sheet.Field{Name: "Telefone", Value: sheet.MissingValue()},
		sheet.Field{Name: "Idade", Value: sheet.NumberValue(30)},
	)
	doc := renderPlain(t, rec, "http://x/doc/DOC9")

	assert.True(t, bytes.Contains(doc.Data, shown("Telefone:")))
	assert.True(t, bytes.Contains(doc.Data, shown("N/A")))
	assert.True(t, bytes.Contains(doc.Data, shown("30")))
}

func TestRenderIsDeterministic(t *testing.T) {
	rec := record("DOC1", sheet.Field{Name: "Nome", Value: sheet.StringValue("Ana")})
	png, err := qr.NewEncoder().Encode("http://x/doc/DOC1")
	require.NoError(t, err)

	r := NewRenderer(DefaultLayout())
	a, err := r.Render(rec, png, "http://x/doc/DOC1")
	require.NoError(t, err)
	b, err := r.Render(rec, png, "http://x/doc/DOC1")
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestRenderTimestamp(t *testing.T) {
	rec := record("DOC1")
	doc := renderPlain(t, rec, "http://x/doc/DOC1", WithTimestamp(time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)))
	assert.True(t, bytes.Contains(doc.Data, []byte("D:20240517103000")))
}

func TestRenderOverflowContinuesOnNextPage(t *testing.T) {
	fields := make([]sheet.Field, 60)
	for i := range fields {
		fields[i] = sheet.Field{Name: fmt.Sprintf("Campo %d", i), Value: sheet.StringValue("valor")}
	}
	doc := renderPlain(t, record("LONG", fields...), "http://x/doc/LONG")
	assert.Greater(t, doc.Pages, 1)
}

func TestRenderRejectsInvalidImage(t *testing.T) {
	_, err := NewRenderer(DefaultLayout()).Render(record("BAD"), []byte("not a png"), "http://x/doc/BAD")
	assert.Error(t, err)
}
