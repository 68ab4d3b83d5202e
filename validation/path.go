package validation

import (
	"regexp"

	"github.com/kbukum/framegraph/errors"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var configPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// IsConfigPath reports whether s is a dotted node path such as
// "Forward.Draw" or an override key such as "Forward.Draw.maxDrawn".
func IsConfigPath(s string) bool {
	return configPath.MatchString(s)
}

// ConfigPath returns a validation error naming field when path is not a
// dotted node path.
func ConfigPath(field, path string) error {
	if IsConfigPath(path) {
		return nil
	}
	fe := FieldError{Field: field, Message: "must be a dotted node path"}
	return errors.Validation(field+": "+fe.Message).
		WithDetail("fields", []FieldError{fe}).
		WithDetail("path", path)
}
