// Package core implements the fan-out relay: one upstream TCP source whose
// byte stream is copied verbatim, in order, to every connected client.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/logger"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/metrics"
)

// bufferSize is the capacity of the transfer buffer staging one source read.
const bufferSize = 1024

// Relay pumps bytes from a source connection to every sink accepted from its
// listener. It takes ownership of both and closes them when Run returns.
type Relay struct {
	source   net.Conn
	listener net.Listener
	sinks    *SinkRegistry
	buf      []byte
}

// New creates a relay over an established source connection and a bound
// listener. Use Run to start it.
func New(source net.Conn, listener net.Listener) *Relay {
	return &Relay{
		source:   source,
		listener: listener,
		sinks:    NewSinkRegistry(),
		buf:      make([]byte, bufferSize),
	}
}

// Run connects to the source at sourceAddr, binds the client listener at
// localAddr and relays until ctx is cancelled or the source stream ends.
// Connect and bind failures are fatal: no client is served and the error is
// returned immediately.
func Run(ctx context.Context, localAddr, sourceAddr string) error {
	source, err := net.Dial("tcp", sourceAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to source %s: %w", sourceAddr, err)
	}

	listener, err := net.Listen("tcp", localAddr)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("failed to bind listener %s: %w", localAddr, err)
	}

	logger.Info("Relay started", "listen_addr", listener.Addr(), "source_addr", source.RemoteAddr())
	return New(source, listener).Run(ctx)
}

// Addr returns the listener address clients connect to.
func (r *Relay) Addr() net.Addr {
	return r.listener.Addr()
}

// Sinks exposes the live sink registry.
func (r *Relay) Sinks() *SinkRegistry {
	return r.sinks
}

type readResult struct {
	n   int
	err error
}

// Run drives the relay loop until ctx is cancelled or the source stream
// terminates. Each iteration services exactly one event: a completed source
// read is broadcast to all sinks, an accepted connection joins the sink set,
// or cancellation stops the loop. On return the source, the listener and all
// sinks are closed. A source read error other than EOF is returned; EOF and
// cancellation return nil.
func (r *Relay) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	done := make(chan struct{})

	defer func() {
		close(done)
		_ = r.listener.Close()
		_ = r.source.Close()
		wg.Wait()
		r.sinks.CloseAll()
	}()

	readCh := make(chan readResult, 1)
	bufFree := make(chan struct{}, 1)
	acceptCh := make(chan net.Conn)

	wg.Add(2)
	go r.readLoop(done, &wg, readCh, bufFree)
	go r.acceptLoop(done, &wg, acceptCh)

	// The reader only touches the buffer while holding the token, so a
	// broadcast round always finishes before the next read starts.
	bufFree <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Relay shutting down", "sinks", r.sinks.Len())
			return nil

		case res := <-readCh:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					logger.Info("Source stream ended, closing all sinks")
					return nil
				}
				return fmt.Errorf("source read failed: %w", res.err)
			}
			// A zero-byte, error-free read is not end-of-stream; skip the round.
			if res.n > 0 {
				r.sinks.BroadcastAndPrune(r.buf[:res.n])
				metrics.BroadcastRoundsTotal.Inc()
				metrics.BytesRelayedTotal.Add(float64(res.n))
			}
			bufFree <- struct{}{}

		case conn := <-acceptCh:
			logger.Debug("Sink connected", "remote_addr", conn.RemoteAddr())
			r.sinks.Add(conn)
			metrics.SinksAcceptedTotal.Inc()
		}
	}
}

// readLoop stages one source read per buffer token into r.buf and hands the
// result to the relay loop. It exits once the relay stops or a read error has
// been delivered.
func (r *Relay) readLoop(done <-chan struct{}, wg *sync.WaitGroup, readCh chan<- readResult, bufFree <-chan struct{}) {
	defer wg.Done()

	for {
		select {
		case <-done:
			return
		case <-bufFree:
		}

		n, err := r.source.Read(r.buf)

		select {
		case readCh <- readResult{n: n, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// acceptLoop forwards accepted client connections to the relay loop. It exits
// when the listener is closed; a connection accepted during shutdown is
// closed instead of handed over.
func (r *Relay) acceptLoop(done <-chan struct{}, wg *sync.WaitGroup, acceptCh chan<- net.Conn) {
	defer wg.Done()

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Error("Accept failed", "error", err)
			}
			return
		}

		select {
		case acceptCh <- conn:
		case <-done:
			_ = conn.Close()
			return
		}
	}
}
