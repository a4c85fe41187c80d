package errors

import "fmt"

// Warning records a partial failure that the pipeline recovered from locally:
// a filtered edge, a dropped workflow, a missing route. Warnings accumulate on
// the run result and surface in logs and API responses; they never abort a
// run.
type Warning struct {
	Code    Code   `json:"code"`
	Entity  string `json:"entity,omitempty"` // ID of the affected node/edge/group
	Message string `json:"message"`
}

// String formats the warning for log output.
func (w Warning) String() string {
	if w.Entity != "" {
		return fmt.Sprintf("%s %s: %s", w.Code, w.Entity, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warnings is an append-only collection of per-entity partial failures.
type Warnings []Warning

// Add appends a warning with a formatted message.
func (ws *Warnings) Add(code Code, entity, format string, args ...any) {
	*ws = append(*ws, Warning{
		Code:    code,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends all warnings from another collection.
func (ws *Warnings) Merge(other Warnings) {
	*ws = append(*ws, other...)
}

// ByCode returns the warnings carrying the given code.
func (ws Warnings) ByCode(code Code) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.Code == code {
			out = append(out, w)
		}
	}
	return out
}
