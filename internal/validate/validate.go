// Package validate wraps go-playground/validator behind the shared error
// taxonomy so handlers can treat any malformed request uniformly.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"docmanager/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a request DTO. Violations come back wrapped in
// apperr.ErrValidation with a per-field summary for the response body.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(fields, ", "))
}
