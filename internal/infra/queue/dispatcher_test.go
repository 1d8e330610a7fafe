package queue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDispatcherSerializesPerChat - jobs do mesmo chat rodam na ordem de chegada
func TestDispatcherSerializesPerChat(t *testing.T) {
	d := NewChatDispatcher()

	// Sem lock de propósito: se os jobs do mesmo chat rodassem em
	// paralelo, o -race acusaria aqui.
	var order []int
	for i := 0; i < 200; i++ {
		i := i
		d.Dispatch(7, func() {
			order = append(order, i)
		})
	}
	d.Drain()

	assert.Len(t, order, 200)
	for i, got := range order {
		assert.Equal(t, i, got, "job fora de ordem na posição %d", i)
	}
}

// TestDispatcherRunsChatsConcurrently - chats diferentes não se bloqueiam
func TestDispatcherRunsChatsConcurrently(t *testing.T) {
	d := NewChatDispatcher()

	aStarted := make(chan struct{})
	bDone := make(chan struct{})

	// O job do chat A só termina depois que o do chat B rodar. Se os
	// chats fossem serializados entre si, isso nunca destravaria.
	d.Dispatch(1, func() {
		close(aStarted)
		select {
		case <-bDone:
		case <-time.After(2 * time.Second):
			t.Error("chat B nunca rodou enquanto o chat A estava ocupado")
		}
	})
	d.Dispatch(2, func() {
		<-aStarted
		close(bDone)
	})

	d.Drain()
}

// TestDispatcherDrainWaitsForInFlightJobs - Drain só retorna com tudo processado
func TestDispatcherDrainWaitsForInFlightJobs(t *testing.T) {
	d := NewChatDispatcher()

	var done int32
	for chat := int64(0); chat < 5; chat++ {
		for j := 0; j < 10; j++ {
			d.Dispatch(chat, func() {
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&done, 1)
			})
		}
	}

	d.Drain()
	assert.Equal(t, int32(50), atomic.LoadInt32(&done))
}

// TestDispatcherReusableAfterIdle - stream esvaziado pode receber jobs de novo
func TestDispatcherReusableAfterIdle(t *testing.T) {
	d := NewChatDispatcher()

	var count int32
	d.Dispatch(9, func() { atomic.AddInt32(&count, 1) })
	d.Drain()

	d.Dispatch(9, func() { atomic.AddInt32(&count, 1) })
	d.Drain()

	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}
