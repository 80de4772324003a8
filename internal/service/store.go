package service

import (
	"context"

	"github.com/dukerupert/bespoke/internal/repository"
)

// Store is the persistence dependency of the services: every query plus the
// ability to run a group of them in one transaction.
//
// postgres.Store is the production implementation.
type Store interface {
	repository.Querier
	ExecTx(ctx context.Context, fn func(q repository.Querier) error) error
}
