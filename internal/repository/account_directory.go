package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// ErrAccountNotFound is returned when a username does not resolve.
var ErrAccountNotFound = errors.New("account not found")

// AccountDirectory is the in-memory account store used for login and registration authority checks.
type AccountDirectory struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	cost     int
}

// NewAccountDirectory constructs an empty directory hashing passwords with the given bcrypt cost.
// A cost of zero selects bcrypt.DefaultCost.
func NewAccountDirectory(cost int) *AccountDirectory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountDirectory{accounts: make(map[string]models.Account), cost: cost}
}

// Add hashes password and stores the account, replacing any account with the same username.
func (d *AccountDirectory) Add(username, password string, role models.UserRole) error {
	if password == "" {
		return appErrors.Clone(appErrors.ErrValidation, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", username, err)
	}
	return d.AddHashed(username, string(hash), role)
}

// AddHashed stores an account with a precomputed bcrypt hash.
func (d *AccountDirectory) AddHashed(username, hash string, role models.UserRole) error {
	name := strings.TrimSpace(username)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	parsed, ok := models.ParseUserRole(string(role))
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "password hash is not a bcrypt hash")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[models.NormalizeKey(name)] = models.Account{Username: name, PasswordHash: hash, Role: parsed}
	return nil
}

// ResolveAccount returns the account for username, case-insensitively.
func (d *AccountDirectory) ResolveAccount(_ context.Context, username string) (*models.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	account, ok := d.accounts[models.NormalizeKey(username)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

// List returns all accounts ordered by username.
func (d *AccountDirectory) List() []models.Account {
	d.mu.RLock()
	out := make([]models.Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return models.NormalizeKey(out[i].Username) < models.NormalizeKey(out[j].Username)
	})
	return out
}
