package closer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("close failed")

func TestCustomCloser(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CustomCloser(nil))

	called := false
	c := CustomCloser(func() error {
		called = true

		return nil
	})

	require.NoError(t, c.Close())
	assert.True(t, called)
}

func TestCloserClosesAllInOrder(t *testing.T) {
	t.Parallel()

	var order []int

	mk := func(i int, err error) func() error {
		return func() error {
			order = append(order, i)

			return err
		}
	}

	c := NewCloser(CustomCloser(mk(1, nil)))
	c.Add(nil)
	c.Add(CustomCloser(mk(2, errTest)))
	c.Add(CustomCloser(mk(3, nil)))

	err := c.Close()
	require.ErrorIs(t, err, errTest)
	assert.Equal(t, []int{1, 2, 3}, order)

	require.NoError(t, NewCloser().Close())
}

func TestHandlePanic(t *testing.T) {
	t.Parallel()

	assert.Nil(t, HandlePanic(nil))

	panicky := HandlePanic(CustomCloser(func() error { panic("boom") }))
	assert.Same(t, panicky, HandlePanic(panicky))

	err := panicky.Close()
	require.ErrorIs(t, err, ErrPanicDuringClose)
	assert.Contains(t, err.Error(), "boom")

	require.ErrorIs(t, HandlePanic(CustomCloser(func() error { return errTest })).Close(), errTest)
}
