package catcher

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

func newTestCatcher(t *testing.T) (*Catcher, *metrics.Registry) {
	t.Helper()

	registry, err := metrics.NewRegistry(10)
	require.NoError(t, err)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	c, err := NewWithConn(conn, registry)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Stop(context.Background()) })

	return c, registry
}

func snapshotValue(t *testing.T, registry *metrics.Registry, name string) int64 {
	t.Helper()

	snap, ok := registry.Lookup(name)
	require.True(t, ok, "metric %q not registered", name)
	require.NotNil(t, snap.Value)

	return *snap.Value
}

func TestHandleAppliesBatch(t *testing.T) {
	c, registry := newTestCatcher(t)

	payload := []byte(`[{"name":"app.web.requests","type":"counter","value":5},{"name":"app.web.depth","type":"gauge","value":42}]`)
	c.handle(payload, &net.UDPAddr{})

	assert.Equal(t, int64(5), snapshotValue(t, registry, "app.web.requests"))
	assert.Equal(t, int64(42), snapshotValue(t, registry, "app.web.depth"))
}

func TestHandleDropsUndecodableBatch(t *testing.T) {
	c, registry := newTestCatcher(t)

	c.handle([]byte(`[{"name":"app.web.requests","type":"counter",`), &net.UDPAddr{})
	assert.Zero(t, registry.Len(), "a failed decode must leave the registry unchanged")

	// The next datagram is still processed.
	c.handle([]byte(`[{"name":"app.web.requests","type":"counter","value":5}]`), &net.UDPAddr{})
	assert.Equal(t, int64(5), snapshotValue(t, registry, "app.web.requests"))
}

func TestHandleSuppressesDuplicateDatagram(t *testing.T) {
	c, registry := newTestCatcher(t)

	payload := []byte(`[{"name":"app.web.requests","type":"counter","value":5}]`)

	c.handle(payload, &net.UDPAddr{})
	c.handle(payload, &net.UDPAddr{})

	assert.Equal(t, int64(5), snapshotValue(t, registry, "app.web.requests"),
		"a byte-identical repeat must not be applied twice")
}

func TestHandleCounterSequence(t *testing.T) {
	c, registry := newTestCatcher(t)

	c.handle([]byte(`[{"name":"app.web.requests","type":"counter","value":5}]`), &net.UDPAddr{})
	assert.Equal(t, int64(5), snapshotValue(t, registry, "app.web.requests"))

	c.handle([]byte(`[{"name":"app.web.requests","type":"counter","value":-2}]`), &net.UDPAddr{})
	assert.Equal(t, int64(3), snapshotValue(t, registry, "app.web.requests"))

	c.handle([]byte(`[{"name":"app.web.requests","type":"counter","value":0}]`), &net.UDPAddr{})
	assert.Zero(t, snapshotValue(t, registry, "app.web.requests"))
}

func TestHandleIgnoresUnknownType(t *testing.T) {
	c, registry := newTestCatcher(t)

	c.handle([]byte(`[{"name":"app.web.wat","type":"sparkline","value":1},{"name":"app.web.ok","type":"gauge","value":9}]`), &net.UDPAddr{})

	_, ok := registry.Lookup("app.web.wat")
	assert.False(t, ok, "an unknown type must register nothing")
	assert.Equal(t, int64(9), snapshotValue(t, registry, "app.web.ok"),
		"the rest of the batch still applies")
}

func TestHandleHistogramStrategies(t *testing.T) {
	c, registry := newTestCatcher(t)

	c.handle([]byte(`[{"name":"app.web.sizes","type":"histogram","biased":true,"value":10},{"name":"app.db.sizes","type":"histogram","value":10}]`), &net.UDPAddr{})
	c.handle([]byte(`[{"name":"app.web.sizes","type":"histogram","value":20},{"name":"app.db.sizes","type":"histogram","biased":true,"value":20}]`), &net.UDPAddr{})

	biased := registry.GetOrCreate("app.web.sizes", metrics.KindHistogram, false)
	require.IsType(t, &metrics.Histogram{}, biased)
	assert.True(t, biased.(*metrics.Histogram).Biased(),
		"strategy chosen at creation survives later updates")

	unbiased := registry.GetOrCreate("app.db.sizes", metrics.KindHistogram, true)
	require.IsType(t, &metrics.Histogram{}, unbiased)
	assert.False(t, unbiased.(*metrics.Histogram).Biased())
}

func TestCatcherEndToEnd(t *testing.T) {
	c, registry := newTestCatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	client, err := net.Dial("udp", c.conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte(`[{"name":"app.web.requests","type":"counter","value":5}]`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, ok := registry.Lookup("app.web.requests")
		return ok && snap.Value != nil && *snap.Value == 5
	}, 2*time.Second, 10*time.Millisecond)

	// A garbage datagram must not stall the loop.
	_, err = client.Write([]byte("not json"))
	require.NoError(t, err)

	_, err = client.Write([]byte(`[{"name":"app.web.depth","type":"gauge","value":7}]`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, ok := registry.Lookup("app.web.depth")
		return ok && snap.Value != nil && *snap.Value == 7
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop(context.Background()))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("catcher did not stop after Stop")
	}
}

func TestCatcherStopsOnContextCancel(t *testing.T) {
	c, _ := newTestCatcher(t)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	// Cancellation must interrupt the blocked receive; no datagram arrives
	// to wake it up.
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("catcher did not observe cancellation")
	}
}

func TestCatcherContinuesAfterReceiveError(t *testing.T) {
	ctrl := gomock.NewController(t)

	registry, err := metrics.NewRegistry(10)
	require.NoError(t, err)

	payload := []byte(`[{"name":"app.web.requests","type":"counter","value":5}]`)

	conn := NewMockPacketConn(ctrl)
	conn.EXPECT().LocalAddr().Return(&net.UDPAddr{IP: net.IPv4zero, Port: 1420}).AnyTimes()
	gomock.InOrder(
		conn.EXPECT().ReadFrom(gomock.Any()).Return(0, nil, errors.New("recvfrom: resource temporarily unavailable")),
		conn.EXPECT().ReadFrom(gomock.Any()).DoAndReturn(func(p []byte) (int, net.Addr, error) {
			n := copy(p, payload)
			return n, &net.UDPAddr{}, nil
		}),
		conn.EXPECT().ReadFrom(gomock.Any()).Return(0, nil, net.ErrClosed),
	)
	conn.EXPECT().Close().Return(nil)

	c, err := NewWithConn(conn, registry)
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))

	snap, ok := registry.Lookup("app.web.requests")
	require.True(t, ok, "the datagram after the receive error must still be applied")
	require.NotNil(t, snap.Value)
	assert.Equal(t, int64(5), *snap.Value)

	require.NoError(t, c.Stop(context.Background()))
}
