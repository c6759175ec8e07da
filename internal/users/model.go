package users

import (
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

const (
	tableName = "users"

	nameMinLength = 2
	nameMaxLength = 50
)

var userScan = identity.Scan{
	Table:   tableName,
	Columns: []string{"name", "email", "created_at"},
}

// User is a ranked users row.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// CreateUserInput carries createUser arguments.
type CreateUserInput struct {
	Name  string
	Email string
}

// Normalize trims both fields and lower-cases the email.
func (in CreateUserInput) Normalize() CreateUserInput {
	return CreateUserInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
	}
}

// Validate checks a normalized input.
func (in CreateUserInput) Validate() error {
	return validation.First(
		validation.Required(in.Name, "name"),
		validation.Length(in.Name, "name", nameMinLength, nameMaxLength),
		validation.Required(in.Email, "email"),
		validation.Email(in.Email),
	)
}

func decodeUser(record identity.Record) (User, error) {
	name, err := record.String("name")
	if err != nil {
		return User{}, err
	}
	email, err := record.String("email")
	if err != nil {
		return User{}, err
	}
	createdAt, err := record.Time("created_at")
	if err != nil {
		return User{}, err
	}
	return User{ID: record.ID, Name: name, Email: email, CreatedAt: createdAt}, nil
}
