package partners

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a partner.
type Status string

const (
	StatusActive      Status = "active"
	StatusArchived    Status = "archived"
	StatusBlacklisted Status = "blacklisted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusBlacklisted:
		return true
	}
	return false
}

// Partner represents a partner directory entry.
type Partner struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	Company         *string   `json:"company"`
	Profession      *string   `json:"profession"`
	Rating          *int      `json:"rating"`
	Status          Status    `json:"status"`
	Classifications []string  `json:"classifications"`
	Notes           *string   `json:"notes"`
	RelationHistory *string   `json:"relationHistory"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (p Partner) FullName() string {
	return p.FirstName + " " + p.LastName
}

// LabelCount is a classification label with the number of partners
// carrying it.
type LabelCount struct {
	Label string
	Count int
}
