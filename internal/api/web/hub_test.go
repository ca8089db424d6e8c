package web

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, _ := test.NewNullLogger()
	h := NewHub(log)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHub_InitialMessagesFirst(t *testing.T) {
	h := newTestHub(t)

	c := NewClient(h, nil, []byte(`{"type":"state"}`))
	h.Broadcast([]byte(`{"type":"alert"}`))

	require.Equal(t, `{"type":"state"}`, string(receive(t, c)))
	require.Equal(t, `{"type":"alert"}`, string(receive(t, c)))
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := newTestHub(t)

	c := NewClient(h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i <= sendBuffer; i++ {
		h.Broadcast([]byte("x"))
	}

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	// буфер вычитывается, затем канал закрыт
	for range c.send {
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := NewHub(log)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	c := NewClient(h, nil)
	h.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	for range c.send {
	}

	late := NewClient(h, nil)
	_, ok := <-late.send
	require.False(t, ok)
}
