package sheet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueDisplay(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"string", StringValue("Maria"), "Maria"},
		{"integral number", NumberValue(3), "3"},
		{"fraction", NumberValue(1.5), "1.5"},
		{"large number", NumberValue(12345678901), "12345678901"},
		{"negative", NumberValue(-0.25), "-0.25"},
		{"missing", MissingValue(), "N/A"},
		{"nan is missing", NumberValue(math.NaN()), "N/A"},
		{"inf is missing", NumberValue(math.Inf(1)), "N/A"},
		{"zero value is missing", Value{}, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Display("N/A"))
		})
	}
}

func TestRecordKeepsIdentifierAsField(t *testing.T) {
	table := &Table{
		Columns: []string{IdentifierColumn, "Nome"},
		Rows: [][]Value{
			{NumberValue(42), StringValue("Ana")},
		},
	}

	rec := table.Record(0)
	assert.Equal(t, "42", rec.Identifier)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, Field{Name: IdentifierColumn, Value: NumberValue(42)}, rec.Fields[0])
	assert.Equal(t, "Nome", rec.Fields[1].Name)
}

func TestRecordMissingIdentifier(t *testing.T) {
	table := &Table{
		Columns: []string{IdentifierColumn, "Nome"},
		Rows:    [][]Value{{MissingValue(), StringValue("Ana")}},
	}
	assert.Equal(t, "", table.Record(0).Identifier)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  error
	}{
		{
			name:  "valid",
			table: &Table{Columns: []string{"ID_UNICO", "Nome"}, Rows: [][]Value{{StringValue("A"), StringValue("B")}}},
		},
		{
			name:  "no rows",
			table: &Table{Columns: []string{"ID_UNICO"}},
			want:  ErrEmpty,
		},
		{
			name:  "empty wins over schema",
			table: &Table{Columns: []string{"ID"}},
			want:  ErrEmpty,
		},
		{
			name:  "wrong first column",
			table: &Table{Columns: []string{"ID", "Nome"}, Rows: [][]Value{{StringValue("A"), StringValue("B")}}},
			want:  ErrBadSchema,
		},
		{
			name:  "case sensitive",
			table: &Table{Columns: []string{"id_unico"}, Rows: [][]Value{{StringValue("A")}}},
			want:  ErrBadSchema,
		},
		{
			name:  "identifier not first",
			table: &Table{Columns: []string{"Nome", "ID_UNICO"}, Rows: [][]Value{{StringValue("A"), StringValue("B")}}},
			want:  ErrBadSchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.table)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidationMessagesDiffer(t *testing.T) {
	assert.NotEqual(t, ErrEmpty.Message(), ErrBadSchema.Message())
	assert.Contains(t, ErrBadSchema.Message(), IdentifierColumn)
}
