package services

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Column sizes of the single-line text fields.
const (
	maxTitleLen    = 100
	maxNameLen     = 100
	maxCategoryLen = 100
	maxEmailLen    = 120
	maxUserEmail   = 100
	maxUsernameLen = 150
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// required returns the names of fields whose trimmed value is empty.
func required(fields ...[2]string) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	return missing
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// lineField is a single-line form value stored in a sized column.
type lineField struct {
	name  string
	value string
	max   int
}

// checkLines rejects control characters (CR/LF included) and values longer
// than their column.
func checkLines(fields ...lineField) error {
	for _, f := range fields {
		if strings.IndexFunc(f.value, unicode.IsControl) >= 0 {
			return validationError("%s must not contain control characters", f.name)
		}
		if utf8.RuneCountInString(strings.TrimSpace(f.value)) > f.max {
			return validationError("%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}
