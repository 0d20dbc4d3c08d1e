package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebook/backend/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	_, auth, _, _, _ := newServices(t)

	id, err := auth.Register("alice", "Female", "1990-04-01", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// The stored credential is hashed, so login goes through bcrypt.
	gotID, token, err := auth.Login(&service.AuthInfo{AuthorID: id, Credential: "pa55word"})
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.NotEmpty(t, token)

	tokenID, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, tokenID)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	_, auth, _, _, _ := newServices(t)

	_, err := auth.Register("  ", "Female", "1990-04-01", "x")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = auth.Register("bob", "Robot", "1990-04-01", "x")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = auth.Register("bob", "Male", "not-a-date", "x")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = auth.Register("bob", "Male", "2990-04-01", "x")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	_, auth, _, _, _ := newServices(t)

	_, err := auth.Register("carol", "Female", "1985-12-24", "x")
	require.NoError(t, err)

	_, err = auth.Register("carol", "Male", "1991-01-31", "y")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRegisterAllocatesNextID(t *testing.T) {
	db, auth, _, _, _ := newServices(t)
	seedUser(t, db, 41, "imported")

	id, err := auth.Register("dave", "Male", "1979-06-15", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestAuthenticateGuards(t *testing.T) {
	db, auth, _, _, _ := newServices(t)
	seedUser(t, db, 1, "alice")

	// Imported rows keep their plaintext credential and compare by equality.
	id, err := auth.Authenticate(authFor(1, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = auth.Authenticate(nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = auth.Authenticate(&service.AuthInfo{AuthorID: 1, Credential: ""})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = auth.Authenticate(&service.AuthInfo{AuthorID: 1, Credential: "wrong"})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = auth.Authenticate(&service.AuthInfo{AuthorID: 99, Credential: "whatever"})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	db, auth, _, _, users := newServices(t)
	seedUser(t, db, 1, "alice")
	require.NoError(t, users.DeleteAccount(authFor(1, "alice"), 1))

	_, err := auth.Authenticate(authFor(1, "alice"))
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, auth, _, _, _ := newServices(t)

	_, err := auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, service.ErrForbidden)
}
