package sqlite

import (
	"context"
	"testing"

	"github.com/narvanalabs/vaulty/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_CreateAndAuthenticate(t *testing.T) {
	users := setupTestStore(t).Users()
	ctx := context.Background()

	created, err := users.Create(ctx, "Alice@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.NotEmpty(t, created.ID)

	got, err := users.Authenticate(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = users.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	users := setupTestStore(t).Users()
	ctx := context.Background()

	_, err := users.Create(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = users.Create(ctx, "ALICE@example.com", "another-password")
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestUserRepo_Lookup(t *testing.T) {
	users := setupTestStore(t).Users()
	ctx := context.Background()

	created, err := users.Create(ctx, "bob@example.com", "hunter2hunter2")
	require.NoError(t, err)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", byID.Email)

	byEmail, err := users.GetByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
