package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetWins(t *testing.T) {
	u := NewUsername(" @alice ", true)
	u.run = func(ctx context.Context, form *huh.Form) error {
		t.Fatal("form shown despite preset")
		return nil
	}

	got, err := u.PromptUsername(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestNonInteractive(t *testing.T) {
	_, err := NewUsername("", false).PromptUsername(context.Background())
	assert.ErrorIs(t, err, ErrNonInteractive)
}

func TestFormCancelled(t *testing.T) {
	u := NewUsername("", true)
	u.run = func(ctx context.Context, form *huh.Form) error { return huh.ErrUserAborted }

	_, err := u.PromptUsername(context.Background())
	assert.True(t, errors.Is(err, huh.ErrUserAborted))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validate("bob"))
	assert.NoError(t, validate("@bob"))
	assert.Error(t, validate(""))
	assert.Error(t, validate("@"))
	assert.Error(t, validate("bob smith"))
}
