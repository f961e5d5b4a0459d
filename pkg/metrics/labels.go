package metrics

import (
	"strconv"

	"github.com/iancoleman/strcase"
)

func statusLabel(code int) string {
	return strconv.Itoa(code)
}

// Label normalizes free-form names (kinds, operations, error classes) into snake_case label values.
func Label(s string) string {
	return strcase.ToSnake(s)
}
