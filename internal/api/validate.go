package api

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage flattens validator errors into one user-facing line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}
