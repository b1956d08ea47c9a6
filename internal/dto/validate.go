package dto

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct validation on a request DTO and maps failures onto
// the validation sentinel so callers can match with errors.Is.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}
