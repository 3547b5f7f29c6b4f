package service

import (
	"adiestra/events-app/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Admin accounts cannot be self-assigned at registration.
	_, err := env.auth.Register(ctx, "boss@test.local", "Sup3rSecret", domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = env.auth.Register(ctx, "who@test.local", "Sup3rSecret", domain.Role("ghost"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	weak := []string{
		"short1A",           // under 8 chars
		"nouppercase1",      // missing upper
		"NOLOWERCASE1",      // missing lower
		"NoDigitsHere",      // missing digit
		"With Space1A",      // contains space
		"WayTooLongPassword1ThatKeepsGoing", // over 16 chars
	}
	for _, password := range weak {
		_, err := env.auth.Register(ctx, "weak@test.local", password, domain.RoleClient)
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q", password)
	}

	user, err := env.auth.Register(ctx, "ok@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of Register")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "dup@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, "dup@test.local", "Sup3rSecret", domain.RoleTrainer)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin_ReturnsTokenAndEntityID(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "login@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)
	client, err := env.clients.CreateClient(ctx, ClientInput{UserID: user.ID, Name: "Login Tester"})
	require.NoError(t, err)

	result, err := env.auth.Login(ctx, "login@test.local", "Sup3rSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, time.Hour, result.Validity)
	assert.Equal(t, client.ID, result.ClientID)
	assert.Equal(t, primitive.NilObjectID, result.TrainerID)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "login@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "login@test.local", "WrongPass1")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// Unknown emails fail the same way; no account enumeration.
	_, err = env.auth.Login(ctx, "nobody@test.local", "Sup3rSecret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestGetUser_SelfOrAdmin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "me@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)

	self := &Viewer{UserID: user.ID, Role: domain.RoleClient}
	got, err := env.auth.GetUser(ctx, self, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	stranger := &Viewer{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = env.auth.GetUser(ctx, stranger, user.ID)
	assert.ErrorIs(t, err, ErrUserAccessDenied)

	_, err = env.auth.GetUser(ctx, adminViewer(), user.ID)
	assert.NoError(t, err)
}

func TestResetPassword_TokenFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "reset@test.local", "Sup3rSecret", domain.RoleClient)
	require.NoError(t, err)

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "reset@test.local"))

	stored, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ResetToken)

	// Wrong token is rejected.
	err = env.auth.ResetPassword(ctx, user.ID, "bogus-token", "N3wSecret")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	require.NoError(t, env.auth.ResetPassword(ctx, user.ID, stored.ResetToken, "N3wSecret"))

	_, err = env.auth.Login(ctx, "reset@test.local", "N3wSecret")
	assert.NoError(t, err)
	_, err = env.auth.Login(ctx, "reset@test.local", "Sup3rSecret")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// Tokens are single use.
	err = env.auth.ResetPassword(ctx, user.ID, stored.ResetToken, "An0therPass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestRequestPasswordReset_SilentOnUnknownEmail(t *testing.T) {
	env := newTestEnv()
	assert.NoError(t, env.auth.RequestPasswordReset(context.Background(), "nobody@test.local"))
}
