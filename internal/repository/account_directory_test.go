package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func TestAccountDirectoryAddAndResolve(t *testing.T) {
	dir := NewAccountDirectory(bcrypt.MinCost)

	require.NoError(t, dir.Add("Alice", "secret", models.RoleStudent))

	account, err := dir.ResolveAccount(context.Background(), " alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", account.Username)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("secret")))
	assert.Equal(t, "Alice (STUDENT)", account.String())

	_, err = dir.ResolveAccount(context.Background(), "bob")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountDirectoryNormalizesRole(t *testing.T) {
	dir := NewAccountDirectory(bcrypt.MinCost)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, dir.AddHashed("jpeck", string(hash), models.UserRole("faculty")))
	account, err := dir.ResolveAccount(context.Background(), "JPECK")
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, account.Role)
}

func TestAccountDirectoryValidation(t *testing.T) {
	dir := NewAccountDirectory(bcrypt.MinCost)

	assert.Error(t, dir.Add("alice", "", models.RoleStudent))
	assert.Error(t, dir.Add(" ", "pw", models.RoleStudent))
	assert.Error(t, dir.Add("alice", "pw", models.UserRole("dean")))
	assert.Error(t, dir.AddHashed("alice", "plain-text", models.RoleStudent))
	assert.Empty(t, dir.List())
}

func TestAccountDirectoryReplacesAndLists(t *testing.T) {
	dir := NewAccountDirectory(bcrypt.MinCost)
	require.NoError(t, dir.Add("zed", "pw", models.RoleAdmin))
	require.NoError(t, dir.Add("alice", "pw", models.RoleStudent))
	require.NoError(t, dir.Add("ALICE", "pw", models.RoleFaculty))

	accounts := dir.List()
	require.Len(t, accounts, 2)
	assert.Equal(t, "ALICE", accounts[0].Username)
	assert.Equal(t, models.RoleFaculty, accounts[0].Role)
	assert.Equal(t, "zed", accounts[1].Username)
}
