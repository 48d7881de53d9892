package sheet

// Validate checks that the table has rows and that its first column is the
// identifier column. Nothing else about the columns is constrained.
func Validate(t *Table) error {
	if t == nil || t.Len() == 0 {
		return &ValidationError{Rule: RuleEmpty}
	}
	if len(t.Columns) == 0 || t.Columns[0] != IdentifierColumn {
		return &ValidationError{Rule: RuleBadSchema}
	}
	return nil
}
