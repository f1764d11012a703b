package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type fakeCatalog struct{ courses []models.Course }

func (f *fakeCatalog) Upsert(course models.Course) error {
	f.courses = append(f.courses, course)
	return nil
}

type fakeAccounts struct {
	plain  map[string]models.UserRole
	hashed map[string]string
}

func (f *fakeAccounts) Add(username, password string, role models.UserRole) error {
	if f.plain == nil {
		f.plain = map[string]models.UserRole{}
	}
	f.plain[username] = role
	return nil
}

func (f *fakeAccounts) AddHashed(username, hash string, role models.UserRole) error {
	if f.hashed == nil {
		f.hashed = map[string]string{}
	}
	f.hashed[username] = hash
	return nil
}

type fakeLedger struct{ facts [][2]string }

func (f *fakeLedger) RecordCompletion(student, course string) {
	f.facts = append(f.facts, [2]string{student, course})
}

const sampleSeed = `
courses:
  - code: CSCI-101
    title: Intro to Programming
    department: CS
  - code: LAB-000
    title: Closed Lab
    department: CS
    capacity: 0
    credits: 1
    prerequisites: [CSCI-101]
accounts:
  - username: alice
    password: secret
    role: Student
  - username: admin
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: ADMIN
completions:
  - student: alice
    course: CSCI-101
`

func TestParseAppliesDefaultsAndKeepsExplicitZero(t *testing.T) {
	f, err := Parse([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, f.Courses, 2)

	intro := f.Courses[0].ToModel()
	assert.Equal(t, models.DefaultCourseCapacity, intro.Capacity)
	assert.Equal(t, models.DefaultCourseCredits, intro.Credits)

	lab := f.Courses[1].ToModel()
	assert.Equal(t, 0, lab.Capacity)
	assert.Equal(t, 1, lab.Credits)
	assert.Equal(t, []string{"CSCI-101"}, lab.Prerequisites)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"blank code":     "courses:\n  - code: \"  \"\n",
		"unknown role":   "accounts:\n  - username: bob\n    password: x\n    role: dean\n",
		"no password":    "accounts:\n  - username: bob\n    role: student\n",
		"unknown field":  "courses:\n  - code: A\n    seats: 3\n",
		"bad completion": "completions:\n  - student: bob\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyLoadsEverything(t *testing.T) {
	f, err := Parse([]byte(sampleSeed))
	require.NoError(t, err)

	catalog := &fakeCatalog{}
	accounts := &fakeAccounts{}
	ledger := &fakeLedger{}

	stats, err := Apply(context.Background(), f, catalog, accounts, ledger)
	require.NoError(t, err)

	assert.Equal(t, Stats{Courses: 2, Accounts: 2, Completions: 1}, stats)
	assert.Equal(t, models.RoleStudent, accounts.plain["alice"])
	assert.Contains(t, accounts.hashed, "admin")
	assert.Equal(t, [][2]string{{"alice", "CSCI-101"}}, ledger.facts)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Accounts, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	f := Default()
	require.Len(t, f.Courses, 3)
	ds := f.Courses[1].ToModel()
	assert.Equal(t, "CSCI-201", ds.Code)
	assert.Equal(t, 35, ds.Capacity)
	assert.Equal(t, []string{"CSCI-101"}, ds.Prerequisites)
}

func TestDemoSeedsOneAccountPerRole(t *testing.T) {
	accounts := &fakeAccounts{}
	stats, err := Apply(context.Background(), Demo(), &fakeCatalog{}, accounts, &fakeLedger{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Courses)
	assert.Equal(t, 3, stats.Accounts)
	assert.Equal(t, models.RoleAdmin, accounts.plain["admin"])
	assert.Equal(t, models.RoleFaculty, accounts.plain["jpeck"])
	assert.Equal(t, models.RoleStudent, accounts.plain["alice"])
	assert.Empty(t, Default().Accounts)
}
