package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestRegister(t *testing.T) {
	tr := New()
	token := uuid.New()

	require.NoError(t, tr.Register(token, 3))
	assert.ErrorIs(t, tr.Register(token, 3), ErrDuplicateSubmission)

	remaining, ok := tr.Remaining(token)
	assert.True(t, ok)
	assert.Equal(t, 3, remaining)
}

func TestCompletion(t *testing.T) {
	t.Run("ResolvesOnLastCallback", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 2))

		ch, err := tr.AwaitCompletion(token)
		require.NoError(t, err)

		done, err := tr.RecordCallback(token)
		require.NoError(t, err)
		assert.False(t, done)
		assert.False(t, closed(ch))

		done, err = tr.RecordCallback(token)
		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, closed(ch))
	})

	t.Run("AlreadyComplete", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 1))

		done, err := tr.RecordCallback(token)
		require.NoError(t, err)
		assert.False(t, done, "nobody is waiting yet")

		ch, err := tr.AwaitCompletion(token)
		require.NoError(t, err)
		assert.True(t, closed(ch))
	})

	t.Run("ZeroExpected", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 0))

		ch, err := tr.AwaitCompletion(token)
		require.NoError(t, err)
		assert.True(t, closed(ch))
	})

	t.Run("ExtraCallbacksAreInert", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 1))

		ch, err := tr.AwaitCompletion(token)
		require.NoError(t, err)

		done, err := tr.RecordCallback(token)
		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, closed(ch))

		// would panic on a double close
		for range 3 {
			done, err = tr.RecordCallback(token)
			require.NoError(t, err)
			assert.False(t, done)
		}
	})

	t.Run("SingleWaiter", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 1))

		_, err := tr.AwaitCompletion(token)
		require.NoError(t, err)
		_, err = tr.AwaitCompletion(token)
		assert.ErrorIs(t, err, ErrAlreadyAwaited)
	})

	t.Run("Unknown", func(t *testing.T) {
		tr := New()
		_, err := tr.RecordCallback(uuid.New())
		assert.ErrorIs(t, err, ErrUnknownSubmission)

		_, err = tr.AwaitCompletion(uuid.New())
		assert.ErrorIs(t, err, ErrUnknownSubmission)
	})

	t.Run("Forget", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 1))

		tr.Forget(token)
		_, ok := tr.Remaining(token)
		assert.True(t, ok, "unresolved entries are kept")

		_, err := tr.AwaitCompletion(token)
		require.NoError(t, err)
		_, err = tr.RecordCallback(token)
		require.NoError(t, err)

		tr.Forget(token)
		_, ok = tr.Remaining(token)
		assert.False(t, ok)
	})
}

func TestDrop(t *testing.T) {
	tr := New()
	token := uuid.New()
	require.NoError(t, tr.Register(token, 2))

	tr.Drop(token)

	_, err := tr.RecordCallback(token)
	assert.ErrorIs(t, err, ErrUnknownSubmission)
	require.NoError(t, tr.Register(token, 2))
}

func TestConcurrentCallbacks(t *testing.T) {
	tr := New()
	token := uuid.New()
	const n = 64
	require.NoError(t, tr.Register(token, n))

	ch, err := tr.AwaitCompletion(token)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	resolved := 0
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := tr.RecordCallback(token)
			assert.NoError(t, err)
			if done {
				mu.Lock()
				resolved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, resolved)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("completion never fired")
	}
}

func TestAwaitTest(t *testing.T) {
	t.Run("ResolvesAllWaiters", func(t *testing.T) {
		tr := New()
		token := uuid.New()

		a, releaseA := tr.AwaitTest(token, 1, 2)
		defer releaseA()
		b, releaseB := tr.AwaitTest(token, 1, 2)
		defer releaseB()
		other, releaseOther := tr.AwaitTest(token, 2, 1)
		defer releaseOther()

		assert.Equal(t, 2, tr.ResolveTest(token, 1, 2))
		assert.True(t, closed(a))
		assert.True(t, closed(b))
		assert.False(t, closed(other))
	})

	t.Run("IndependentOfCompletion", func(t *testing.T) {
		tr := New()
		token := uuid.New()
		require.NoError(t, tr.Register(token, 2))

		ch, release := tr.AwaitTest(token, 1, 1)
		defer release()

		_, err := tr.RecordCallback(token)
		require.NoError(t, err)
		assert.False(t, closed(ch))
	})

	t.Run("ReleasedWaiterNotResolved", func(t *testing.T) {
		tr := New()
		token := uuid.New()

		ch, release := tr.AwaitTest(token, 1, 1)
		release()
		release()

		assert.Equal(t, 0, tr.ResolveTest(token, 1, 1))
		assert.False(t, closed(ch))
	})
}

func TestClear(t *testing.T) {
	tr := New()
	token := uuid.New()
	require.NoError(t, tr.Register(token, 1))

	done, err := tr.AwaitCompletion(token)
	require.NoError(t, err)
	test, release := tr.AwaitTest(token, 1, 1)

	tr.Clear()
	release()

	assert.False(t, closed(done), "cleared waiters are abandoned")
	assert.False(t, closed(test), "cleared waiters are abandoned")

	_, err = tr.RecordCallback(token)
	assert.ErrorIs(t, err, ErrUnknownSubmission)

	require.NoError(t, tr.Register(token, 1), "token can be reused after a clear")
}
