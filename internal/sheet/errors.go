package sheet

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for filenames that are not .csv, .xls or .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Validation rules reported by ValidationError.
const (
	RuleEmpty     = "empty"
	RuleBadSchema = "bad_schema"
)

// ParseError means the bytes could not be read as the declared format.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s input: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError means the table parsed but breaks the required schema.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Rule
}

// Is matches any ValidationError carrying the same rule.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Rule == e.Rule
}

// Message returns the client-facing explanation of the failed rule.
func (e *ValidationError) Message() string {
	switch e.Rule {
	case RuleEmpty:
		return "O arquivo enviado não contém nenhuma linha de dados."
	case RuleBadSchema:
		return fmt.Sprintf("A primeira coluna da planilha deve se chamar '%s'.", IdentifierColumn)
	default:
		return "A planilha enviada é inválida."
	}
}

var (
	ErrEmpty     = &ValidationError{Rule: RuleEmpty}
	ErrBadSchema = &ValidationError{Rule: RuleBadSchema}
)
