package orchestrators

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parker/internal/domain/user"
)

func (e *testEnv) seedAdminDeps() SeedAdminDeps {
	return SeedAdminDeps{Users: e.users, Accounts: e.accounts, GenerateID: uuid.NewString, Now: e.clock}
}

func TestExecuteSeedAdmin_CreatesThenUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := ExecuteSeedAdmin(ctx, SeedAdminInput{Email: "Admin@Parker.dev", Name: "Admin", Password: "first-password"}, env.seedAdminDeps())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ExecuteSeedAdmin(ctx, SeedAdminInput{Email: "admin@parker.dev", Password: "second-password"}, env.seedAdminDeps())
	require.NoError(t, err)
	assert.False(t, created)

	u, err := env.users.GetByEmail(ctx, "admin@parker.dev")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.True(t, u.IsVerified())
	assert.Equal(t, "Admin", u.Name, "an empty name keeps the existing one")
	assert.NoError(t, u.CheckPassword("second-password"))
	assert.Len(t, u.Accounts, 1)
	assert.Equal(t, 1, env.count(t, "users"))
}

// TestExecuteSeedAdmin_PromotesMember checks an existing member becomes an admin.
func TestExecuteSeedAdmin_PromotesMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.seedMember(t, "jo@parker.dev")

	created, err := ExecuteSeedAdmin(ctx, SeedAdminInput{Email: "jo@parker.dev", Password: "abcdefgh"}, env.seedAdminDeps())
	require.NoError(t, err)
	assert.False(t, created)

	u, err := env.users.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.Len(t, u.Accounts, 1)
}

func TestExecuteSeedAdmin_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := ExecuteSeedAdmin(context.Background(), SeedAdminInput{Email: "admin@parker.dev", Password: "short"}, env.seedAdminDeps())
	assert.ErrorIs(t, err, user.ErrPasswordTooShort)
	assert.Zero(t, env.count(t, "users"))
}
