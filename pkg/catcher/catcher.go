// Package catcher receives metric batches as UDP datagrams and applies them
// to a registry: receive, duplicate suppression, JSON decode, registry
// update, all on one sequential worker.
package catcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

//go:generate mockgen -destination=mock_packet_conn.go -package=catcher net PacketConn

// MaxDatagramSize is the largest payload handled in one read. One metric with
// a reasonable name is under 200 bytes, and a default 64-bit Linux socket
// hands over at most 24,258 bytes per datagram. Anything larger is truncated
// by the transport before it reaches this code; the only symptom is a decode
// failure.
const MaxDatagramSize = 24258

// Catcher owns a bound network endpoint and runs the ingestion loop.
type Catcher struct {
	conn     net.PacketConn
	registry *metrics.Registry
	dedupe   *deduper

	done      chan struct{}
	closeOnce sync.Once
}

// New binds a UDP endpoint on the given port. A bind failure is returned to
// the caller and is fatal at startup.
func New(port int, registry *metrics.Registry) (*Catcher, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}

	return NewWithConn(conn, registry)
}

// NewWithConn wraps an already-bound connection; tests use this to inject
// loopback or mock sockets.
func NewWithConn(conn net.PacketConn, registry *metrics.Registry) (*Catcher, error) {
	dedupe, err := newDeduper(dedupeCapacity)
	if err != nil {
		return nil, err
	}

	return &Catcher{
		conn:     conn,
		registry: registry,
		dedupe:   dedupe,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the receive loop until Stop is called or ctx is canceled.
// Receive and decode failures are logged and the loop continues; nothing in
// the datagram path is fatal.
func (c *Catcher) Start(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			c.close()
		case <-c.done:
		}
	}()

	log.Printf("Listening for metrics on %s", c.conn.LocalAddr())

	buf := make([]byte, MaxDatagramSize)

	for {
		select {
		case <-c.done:
			return nil
		default:
		}

		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			log.Printf("Receive error: %v", err)

			continue
		}

		c.handle(buf[:n], addr)
	}
}

// Stop shuts the catcher down, interrupting any in-flight receive so the
// loop observes the stop promptly instead of waiting for the next datagram.
func (c *Catcher) Stop(_ context.Context) error {
	c.close()
	return nil
}

func (c *Catcher) close() {
	c.closeOnce.Do(func() {
		close(c.done)

		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("Error closing socket: %v", err)
		}
	})
}

// handle processes one datagram: dedupe, decode, apply.
func (c *Catcher) handle(data []byte, addr net.Addr) {
	digest, duplicate := c.dedupe.checkAndMark(data)
	if duplicate {
		log.Printf("Not processing duplicate message <%s>", digest)
		return
	}

	batch, err := decodeBatch(data)
	if err != nil {
		// The whole batch is dropped; the next datagram is unaffected.
		log.Printf("Dropping batch from %v: %v; payload: %s", addr, err, data)
		return
	}

	for _, msg := range batch {
		kind, ok := metrics.ParseKind(msg.Type)
		if !ok {
			log.Printf("Ignoring metric '%s' with unknown type '%s'", msg.Name, msg.Type)
			continue
		}

		metric := c.registry.GetOrCreate(msg.Name, kind, msg.Biased)
		if metric == nil {
			continue
		}

		metric.Update(msg.Value)
	}
}
