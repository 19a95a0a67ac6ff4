package core

import "context"

// Usecase is the contract every application operation implements: one
// Execute call, one typed output.
type Usecase[T any] interface {
	Execute(ctx context.Context) (T, error)
}
