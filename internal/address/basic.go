package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BasicValidator performs format validation without external API calls.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() Validator {
	return &BasicValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate normalizes the address and checks required fields and formats.
// Field names in the result use the JSON names of the address.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	normalized := addr.Normalize()

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		return &ValidationResult{IsValid: true, NormalizedAddress: &normalized}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("failed to validate address: %w", err)
	}

	result := &ValidationResult{NormalizedAddress: &normalized}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   jsonFieldName(fe.StructField()),
			Message: fieldMessage(fe),
		})
	}
	return result, nil
}

var jsonNames = map[string]string{
	"FullName":     "fullName",
	"Company":      "company",
	"AddressLine1": "addressLine1",
	"AddressLine2": "addressLine2",
	"City":         "city",
	"State":        "state",
	"PostalCode":   "postalCode",
	"Country":      "country",
	"Phone":        "phone",
}

func jsonFieldName(structField string) string {
	if name, ok := jsonNames[structField]; ok {
		return name
	}
	return structField
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "e164":
		return "must be an international phone number"
	default:
		return "is invalid"
	}
}
