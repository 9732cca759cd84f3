package core

import (
	"context"
)

// SourceResolver defines how to find the upstream source address.
// It is purely a lookup mechanism and knows nothing about the network.
type SourceResolver interface {
	Resolve(ctx context.Context) (string, error)
}
