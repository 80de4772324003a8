package address

import (
	"context"
	"strings"
)

// Validator defines the interface for shipping address validation.
// Implementations can wrap external verification APIs; BasicValidator
// only checks required fields and formats.
type Validator interface {
	// Validate checks if an address is complete enough to ship to.
	// Returns a normalized copy of the address when validation succeeds.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Address is the shipping address captured at checkout. Orders store a copy
// of it, never a reference to a customer profile.
type Address struct {
	FullName     string `json:"fullName" validate:"required,max=120"`
	Company      string `json:"company,omitempty" validate:"max=120"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state,omitempty" validate:"max=100"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,iso3166_1_alpha2"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// Normalize trims whitespace and upper-cases the country code.
func (a Address) Normalize() Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Company = strings.TrimSpace(a.Company)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.ToUpper(strings.TrimSpace(a.PostalCode))
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *Address
	Errors            []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}
