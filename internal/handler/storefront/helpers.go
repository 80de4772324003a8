package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
)

// identity returns the caller established by the identity middleware.
func identity(r *http.Request) (domain.Identity, bool) {
	return domain.IdentityFromContext(r.Context())
}

// pathUUID parses the named path parameter as a UUID.
func pathUUID(r *http.Request, name, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, name, "must be a UUID")
	}
	return id, nil
}
