// Package seed loads the initial catalog, accounts and transcript facts from YAML.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// File is the on-disk seed document.
type File struct {
	Courses     []Course     `yaml:"courses"`
	Accounts    []Account    `yaml:"accounts"`
	Completions []Completion `yaml:"completions"`
}

// Course mirrors models.Course with optional numeric fields so omitted values get defaults
// while an explicit zero capacity is preserved.
type Course struct {
	Code          string   `yaml:"code"`
	Title         string   `yaml:"title"`
	Department    string   `yaml:"department"`
	Capacity      *int     `yaml:"capacity"`
	Credits       *int     `yaml:"credits"`
	Prerequisites []string `yaml:"prerequisites"`
}

// Account carries either a plaintext password (hashed on load) or a precomputed bcrypt hash.
type Account struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// Completion is a transcript fact.
type Completion struct {
	Student string `yaml:"student"`
	Course  string `yaml:"course"`
}

// Default returns the starter catalog used when no seed file is configured.
func Default() *File {
	capacity := func(n int) *int { return &n }
	return &File{
		Courses: []Course{
			{Code: "CSCI-101", Title: "Intro to Programming", Department: "CS", Capacity: capacity(40)},
			{Code: "CSCI-201", Title: "Data Structures", Department: "CS", Capacity: capacity(35), Prerequisites: []string{"CSCI-101"}},
			{Code: "MATH-121", Title: "Calculus I", Department: "Math", Capacity: capacity(40)},
		},
	}
}

// DemoPassword is the password of the accounts added by Demo.
const DemoPassword = "change-me"

// Demo returns the starter catalog plus one account per role, for local development.
func Demo() *File {
	f := Default()
	f.Accounts = []Account{
		{Username: "admin", Password: DemoPassword, Role: string(models.RoleAdmin)},
		{Username: "jpeck", Password: DemoPassword, Role: string(models.RoleFaculty)},
		{Username: "alice", Password: DemoPassword, Role: string(models.RoleStudent)},
	}
	return f
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks fields the stores would reject or silently misinterpret.
func (f *File) Validate() error {
	for i, c := range f.Courses {
		if strings.TrimSpace(c.Code) == "" {
			return fmt.Errorf("courses[%d]: code is required", i)
		}
	}
	for i, a := range f.Accounts {
		if strings.TrimSpace(a.Username) == "" {
			return fmt.Errorf("accounts[%d]: username is required", i)
		}
		if _, ok := models.ParseUserRole(a.Role); !ok {
			return fmt.Errorf("accounts[%d]: unknown role %q", i, a.Role)
		}
		if a.Password == "" && a.PasswordHash == "" {
			return fmt.Errorf("accounts[%d]: password or password_hash is required", i)
		}
	}
	for i, c := range f.Completions {
		if strings.TrimSpace(c.Student) == "" || strings.TrimSpace(c.Course) == "" {
			return fmt.Errorf("completions[%d]: student and course are required", i)
		}
	}
	return nil
}

// ToModel converts a seed course, applying the catalog defaults for omitted numbers.
func (c Course) ToModel() models.Course {
	course := models.Course{
		Code:          strings.TrimSpace(c.Code),
		Title:         c.Title,
		Department:    c.Department,
		Capacity:      models.DefaultCourseCapacity,
		Credits:       models.DefaultCourseCredits,
		Prerequisites: c.Prerequisites,
	}
	if c.Capacity != nil {
		course.Capacity = *c.Capacity
	}
	if c.Credits != nil {
		course.Credits = *c.Credits
	}
	return course
}

type catalogWriter interface {
	Upsert(course models.Course) error
}

type accountWriter interface {
	Add(username, password string, role models.UserRole) error
	AddHashed(username, passwordHash string, role models.UserRole) error
}

type completionWriter interface {
	RecordCompletion(student, course string)
}

// Stats reports how many records Apply loaded.
type Stats struct {
	Courses     int
	Accounts    int
	Completions int
}

// Apply loads the seed into the stores. Courses go first so completions can reference them.
func Apply(ctx context.Context, f *File, catalog catalogWriter, accounts accountWriter, ledger completionWriter) (Stats, error) {
	var stats Stats
	for _, c := range f.Courses {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := catalog.Upsert(c.ToModel()); err != nil {
			return stats, fmt.Errorf("seed course %s: %w", c.Code, err)
		}
		stats.Courses++
	}
	for _, a := range f.Accounts {
		role, _ := models.ParseUserRole(a.Role)
		var err error
		if a.PasswordHash != "" {
			err = accounts.AddHashed(a.Username, a.PasswordHash, role)
		} else {
			err = accounts.Add(a.Username, a.Password, role)
		}
		if err != nil {
			return stats, fmt.Errorf("seed account %s: %w", a.Username, err)
		}
		stats.Accounts++
	}
	for _, c := range f.Completions {
		ledger.RecordCompletion(c.Student, c.Course)
		stats.Completions++
	}
	return stats, nil
}
