package rabbitmq

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplexer_Register_Duplicate(t *testing.T) {
	m := NewMultiplexer()
	deadline := time.Now().Add(time.Second)

	_, err := m.Register("abc", deadline)
	require.NoError(t, err)

	_, err = m.Register("abc", deadline)
	assert.ErrorIs(t, err, ErrDuplicateCorrelationID)
	assert.Equal(t, 1, m.Pending())
}

func TestMultiplexer_ResolveThenCancel(t *testing.T) {
	m := NewMultiplexer()

	slot, err := m.Register("abc", time.Now().Add(time.Second))
	require.NoError(t, err)

	assert.True(t, m.resolve("abc", []byte(`{"ok":true}`)))
	assert.False(t, m.Cancel("abc"))
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, []byte(`{"ok":true}`), <-slot)
}

func TestMultiplexer_CancelThenResolve(t *testing.T) {
	m := NewMultiplexer()

	slot, err := m.Register("abc", time.Now().Add(time.Second))
	require.NoError(t, err)

	assert.True(t, m.Cancel("abc"))
	assert.False(t, m.resolve("abc", []byte(`late`)))
	assert.False(t, m.Cancel("abc"))
	assert.Equal(t, 0, m.Pending())
	assert.Empty(t, slot)

	// The id can be reused once it is gone.
	_, err = m.Register("abc", time.Now().Add(time.Second))
	assert.NoError(t, err)
}

func TestMultiplexer_ResolveAndCancelRace(t *testing.T) {
	m := NewMultiplexer()

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("call-%d", i)
		slot, err := m.Register(id, time.Now().Add(time.Second))
		require.NoError(t, err)

		var wins int32
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if m.resolve(id, []byte("reply")) {
				atomic.AddInt32(&wins, 1)
			}
		}()
		go func() {
			defer wg.Done()
			if m.Cancel(id) {
				atomic.AddInt32(&wins, 1)
			}
		}()
		wg.Wait()

		// Ровно один победитель
		require.Equal(t, int32(1), wins)
		require.LessOrEqual(t, len(slot), 1)
	}

	assert.Equal(t, 0, m.Pending())
}

func TestMultiplexer_ResolveAfterDeadline(t *testing.T) {
	m := NewMultiplexer()

	slot, err := m.Register("abc", time.Now().Add(-time.Second))
	require.NoError(t, err)

	// Only the owner of the call decides whether a late reply counts.
	assert.True(t, m.resolve("abc", []byte("late")))
	assert.Equal(t, []byte("late"), <-slot)
}

func TestMultiplexer_ReplyQueue(t *testing.T) {
	m := NewMultiplexer()
	ch := newFakeChannel()
	defer ch.Close()

	queue, err := m.ReplyQueue(ch)
	require.NoError(t, err)
	assert.Equal(t, "amq.gen-1", queue)
	assert.False(t, ch.isDurable(queue))

	again, err := m.ReplyQueue(ch)
	require.NoError(t, err)
	assert.Equal(t, queue, again)
	assert.Equal(t, 1, ch.replyDeclares)

	// A new channel gets its own reply queue.
	other := newFakeChannel()
	defer other.Close()

	otherQueue, err := m.ReplyQueue(other)
	require.NoError(t, err)
	assert.Equal(t, "amq.gen-1", otherQueue)
	assert.Equal(t, 1, other.replyDeclares)
}

func TestMultiplexer_ReplyQueue_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ch *fakeChannel)
	}{
		{
			name:  "declare fails",
			setup: func(ch *fakeChannel) { ch.declareErr = errors.New("access refused") },
		},
		{
			name:  "consume fails",
			setup: func(ch *fakeChannel) { ch.consumeErr = errors.New("exclusive consumer") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMultiplexer()
			ch := newFakeChannel()
			tt.setup(ch)

			_, err := m.ReplyQueue(ch)
			assert.Error(t, err)

			// Nothing is cached after a failure.
			ch.declareErr, ch.consumeErr = nil, nil
			queue, err := m.ReplyQueue(ch)
			require.NoError(t, err)
			assert.NotEmpty(t, queue)
			_ = ch.Close()
		})
	}
}

func TestMultiplexer_Consume_DropsUnmatchedReplies(t *testing.T) {
	m := NewMultiplexer()
	ch := newFakeChannel()
	defer ch.Close()

	_, err := m.ReplyQueue(ch)
	require.NoError(t, err)

	slot, err := m.Register("known", time.Now().Add(time.Second))
	require.NoError(t, err)

	ch.reply("", `{"stray":true}`)
	ch.reply("unknown", `{"stray":true}`)
	ch.reply("known", `{"ok":true}`)

	select {
	case body := <-slot:
		assert.Equal(t, `{"ok":true}`, string(body))
	case <-time.After(time.Second):
		t.Fatal("reply was not dispatched")
	}
	assert.Equal(t, 0, m.Pending())
}
