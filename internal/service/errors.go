package service

import (
	"github.com/dukerupert/bespoke/internal/domain"
)

// Product and stock errors - use domain.ENOTFOUND / domain.ECONFLICT
var (
	ErrProductNotFound   = domain.ErrProductNotFound
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrInvalidQuantity   = domain.ErrInvalidQuantity
)

// Cart errors
var (
	ErrCartLineNotFound     = domain.ErrCartLineNotFound
	ErrInvalidClaimStrategy = domain.ErrInvalidClaimStrategy
	ErrClaimRequiresUser    = domain.ErrClaimRequiresUser
	ErrInvalidSize          = domain.Errorf(domain.EINVALID, "", "Size is required")
	ErrInvalidGuestToken    = domain.Errorf(domain.EINVALID, "", "Guest token is required")
)

// Order errors
var (
	ErrOrderNotFound       = domain.ErrOrderNotFound
	ErrEmptySelection      = domain.ErrEmptySelection
	ErrOrderNotCancellable = domain.ErrOrderNotCancellable
	ErrInvalidTransition   = domain.ErrInvalidTransition
)
