package memory

import (
	"context"
	"fmt"
	"net"
)

// Resolver returns a statically configured source address.
type Resolver struct {
	addr string
}

// NewResolver creates a resolver for a fixed host:port source address.
func NewResolver(host, port string) (*Resolver, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("static source requires host and port, got host=%q port=%q", host, port)
	}
	return &Resolver{addr: net.JoinHostPort(host, port)}, nil
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	return r.addr, nil
}
