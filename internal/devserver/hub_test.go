package devserver

import (
	"sync"
	"testing"
	"time"

	rt "janmanch-client/internal/domain/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dropping a slow consumer closes its send channel while other goroutines
// may still be pushing replies to it; none of them may panic.
func TestHubDropsSlowConsumerSafely(t *testing.T) {
	h := NewHub(nil)
	client := &wsClient{hub: h, send: make(chan []byte, 1), userID: "u1", sessionID: "s1"}
	h.register(client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				client.sendEvent(rt.EventNotificationNew, map[string]string{"id": "n1"})
			}
		}()
	}
	wg.Wait()

	// The full buffer triggers an asynchronous drop.
	require.Eventually(t, func() bool {
		return h.Connected("u1") == 0
	}, time.Second, 5*time.Millisecond)

	// Sends after the drop are silently discarded.
	client.sendEvent(rt.EventNotificationNew, nil)
	h.SendToUser("u1", rt.EventNotificationNew, nil)

	client.sendMu.Lock()
	closed := client.closed
	client.sendMu.Unlock()
	assert.True(t, closed)
}

// Unregistering twice must be harmless; the read pump and a slow-consumer
// drop can both reach it.
func TestHubUnregisterIdempotent(t *testing.T) {
	h := NewHub(nil)
	client := &wsClient{hub: h, send: make(chan []byte, 4), userID: "u1", sessionID: "s1"}
	h.register(client)

	h.unregister(client)
	h.unregister(client)
	assert.Zero(t, h.Connected("u1"))
}
