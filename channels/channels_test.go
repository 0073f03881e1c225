package channels

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_Buffered(t *testing.T) {
	t.Parallel()

	input, output, lenFunc := Create[string](2)

	assert.Equal(t, 0, lenFunc())

	input <- "a"
	input <- "b"

	assert.Equal(t, 2, lenFunc())
	assert.Equal(t, "a", <-output)
	assert.Equal(t, 1, lenFunc())
	assert.Equal(t, "b", <-output)
	assert.Equal(t, 0, lenFunc())
}

func TestCreate_Unbuffered(t *testing.T) {
	t.Parallel()

	input, output, lenFunc := Create[int](0)

	go func() {
		input <- 7
	}()

	select {
	case v := <-output:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for unbuffered send")
	}

	assert.Equal(t, 0, lenFunc())
}

func TestCreate_NegativeIsInfinite(t *testing.T) {
	t.Parallel()

	input, output, lenFunc := Create[int](-1)

	for i := range 500 {
		input <- i
	}

	require.Eventually(t, func() bool { return lenFunc() == 500 }, time.Second, time.Millisecond)

	for i := range 500 {
		assert.Equal(t, i, <-output)
	}

	assert.Equal(t, 0, lenFunc())
}

func TestInfiniteChan_OrderAndClose(t *testing.T) {
	t.Parallel()

	input, output, _ := InfiniteChan[string]()

	sent := []string{"idle", "running", "done", "idle"}
	for _, s := range sent {
		input <- s
	}

	close(input)

	received := make([]string, 0, len(sent))
	for v := range output {
		received = append(received, v)
	}

	assert.Equal(t, sent, received)
}

func TestInfiniteChan_EmptyClose(t *testing.T) {
	t.Parallel()

	input, output, lenFunc := InfiniteChan[int]()

	close(input)

	_, ok := <-output
	assert.False(t, ok)
	assert.Equal(t, 0, lenFunc())
}

func TestInfiniteChan_SlowConsumer(t *testing.T) {
	t.Parallel()

	input, output, _ := InfiniteChan[int]()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 20 {
			input <- i
		}

		close(input)
	}()

	// The producer never blocks on the consumer.
	wg.Wait()

	got := 0
	for v := range output {
		assert.Equal(t, got, v)
		got++
	}

	assert.Equal(t, 20, got)
}

func TestCloseChannelIgnorePanic(t *testing.T) {
	t.Parallel()

	ch := make(chan int)

	assert.NotPanics(t, func() {
		CloseChannelIgnorePanic(ch)
		CloseChannelIgnorePanic(ch)
		CloseChannelIgnorePanic[int](nil)
	})

	_, ok := <-ch
	assert.False(t, ok)
}
