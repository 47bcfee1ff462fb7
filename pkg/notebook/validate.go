package notebook

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var cellIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the structural rules of the nbformat v4 schema that the
// contents layer relies on. It returns validation.Errors keyed by JSON field
// name.
func (nb *Notebook) Validate() error {
	return validation.ValidateStruct(nb,
		validation.Field(&nb.NBFormat, validation.Required, validation.In(CurrentMajor)),
		validation.Field(&nb.NBFormatMinor, validation.Min(0)),
		validation.Field(&nb.Metadata, validation.NotNil),
		validation.Field(&nb.Cells, validation.NotNil),
	)
}

// Validate checks a single cell.
func (c *Cell) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CellType, validation.Required, validation.In(CellCode, CellMarkdown, CellRaw)),
		validation.Field(&c.ID, validation.Length(1, 64), validation.Match(cellIDPattern)),
		validation.Field(&c.ExecutionCount,
			validation.When(c.CellType != CellCode, validation.Nil),
			validation.Min(0),
		),
		validation.Field(&c.Outputs,
			validation.When(c.CellType != CellCode, validation.Empty),
			validation.Each(validation.By(validateOutput)),
		),
	)
}

var outputTypes = []any{"execute_result", "display_data", "stream", "error"}

func validateOutput(value any) error {
	out, _ := value.(map[string]any)
	return validation.Validate(out["output_type"], validation.Required, validation.In(outputTypes...))
}
