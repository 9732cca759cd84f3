package core

import (
	"io"
	"net"
	"sync"

	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/logger"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/metrics"
)

// SinkRegistry owns the set of live sink connections. All mutation and
// iteration happens under a single mutex, so a broadcast round and an add
// never interleave: a client accepted mid-round sees either all of the next
// round's bytes or none of the current one's.
type SinkRegistry struct {
	mu    sync.Mutex
	sinks []net.Conn // insertion order = acceptance order
}

// NewSinkRegistry returns an empty registry.
func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{}
}

// Add appends conn to the sink set.
func (r *SinkRegistry) Add(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks = append(r.sinks, conn)
	metrics.ConnectedSinks.Set(float64(len(r.sinks)))
}

// Len returns the current number of sinks.
func (r *SinkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}

// BroadcastAndPrune writes p to every sink in acceptance order. A sink whose
// write fails, or reports zero bytes written without an error, is closed and
// filtered out of the set; the remaining sinks still receive the full payload.
// Per-sink failures never propagate to the caller.
func (r *SinkRegistry) BroadcastAndPrune(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alive := r.sinks[:0]
	for _, sink := range r.sinks {
		if err := writeFull(sink, p); err != nil {
			logger.Warn("Dropping sink after write failure", "remote_addr", sink.RemoteAddr(), "error", err)
			metrics.SinksEvictedTotal.Inc()
			_ = sink.Close()
			continue
		}
		alive = append(alive, sink)
	}

	// Let pruned conns be collected
	for i := len(alive); i < len(r.sinks); i++ {
		r.sinks[i] = nil
	}
	r.sinks = alive
	metrics.ConnectedSinks.Set(float64(len(r.sinks)))
}

// CloseAll closes every sink and empties the set.
func (r *SinkRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sink := range r.sinks {
		_ = sink.Close()
		r.sinks[i] = nil
	}
	r.sinks = r.sinks[:0]
	metrics.ConnectedSinks.Set(0)
}

// writeFull keeps writing the unsent tail of p until all of it has been
// accepted by the connection. A zero-byte write with no error means the peer
// most likely disconnected half-open and is treated the same as an error.
func writeFull(conn net.Conn, p []byte) error {
	for len(p) > 0 {
		n, err := conn.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		p = p[n:]
	}
	return nil
}
