package cli

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTerminal = errors.New("terminal gone")

func TestConfirmed(t *testing.T) {
	t.Parallel()

	ok, err := confirmed(nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = confirmed(promptui.ErrAbort)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = confirmed(errTerminal)
	require.ErrorIs(t, err, errTerminal)
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	t.Parallel()

	event, ok, err := selection(2, "reset", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "reset", event)

	_, ok, err = selection(0, QuitChoice, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, quit := range []error{promptui.ErrInterrupt, promptui.ErrEOF} {
		_, ok, err = selection(-1, "", quit)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, ok, err = selection(-1, "", errTerminal)
	require.ErrorIs(t, err, errTerminal)
	assert.False(t, ok)
}
