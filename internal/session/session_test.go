package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context) (string, error) { return "", errors.New("down") }
func (failingStore) Set(ctx context.Context, id string) error { return errors.New("down") }

func TestChainPrefersPrimary(t *testing.T) {
	primary := NewMemoryStore()
	fallback := NewMemoryStore()
	require.NoError(t, primary.Set(context.Background(), "u1"))
	require.NoError(t, fallback.Set(context.Background(), "u2"))

	c := NewChain(primary, fallback)
	id, err := c.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestChainFallsBackWhenPrimaryEmptyOrFailing(t *testing.T) {
	fallback := NewMemoryStore()
	require.NoError(t, fallback.Set(context.Background(), "u2"))

	c := NewChain(NewMemoryStore(), fallback)
	id, err := c.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u2", id)

	c = NewChain(failingStore{}, fallback)
	id, err = c.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u2", id)
}

func TestChainEmptyMeansSignedOut(t *testing.T) {
	c := NewChain(NewMemoryStore())
	id, err := c.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSignInEmitsChange(t *testing.T) {
	c := NewChain(NewMemoryStore())
	require.NoError(t, c.SignIn(context.Background(), "u3"))
	ch := <-c.Changes()
	assert.Equal(t, "u3", ch.UserID)

	require.NoError(t, c.SignOut(context.Background()))
	ch = <-c.Changes()
	assert.Empty(t, ch.UserID)

	id, err := c.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}
