package partners

import (
	"github.com/guregu/null/v5"

	"github.com/bondly/bondly/internal/shared"
)

type CreatePartnerRequest struct {
	FirstName       string   `json:"firstName" validate:"required,notblank,max=100"`
	LastName        string   `json:"lastName" validate:"required,notblank,max=100"`
	Email           string   `json:"email" validate:"required,email,max=255"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,phone"`
	Company         *string  `json:"company,omitempty" validate:"omitempty,max=200"`
	Profession      *string  `json:"profession,omitempty" validate:"omitempty,max=100"`
	Rating          *int     `json:"rating,omitempty" validate:"omitnil,min=1,max=5"`
	Status          Status   `json:"status,omitempty" validate:"omitempty,oneof=active archived blacklisted"`
	Classifications []string `json:"classifications,omitempty" validate:"omitempty,max=20,dive,notblank,max=100"`
	Notes           *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	RelationHistory *string  `json:"relationHistory,omitempty" validate:"omitempty,max=10000"`
}

// UpdatePartnerRequest changes only the fields that are present and non-null.
// An empty string clears an optional text field.
type UpdatePartnerRequest struct {
	FirstName       null.String `json:"firstName" validate:"omitempty,max=100"`
	LastName        null.String `json:"lastName" validate:"omitempty,max=100"`
	Email           null.String `json:"email" validate:"omitempty,email,max=255"`
	Phone           null.String `json:"phone" validate:"omitempty,phone"`
	Company         null.String `json:"company" validate:"omitempty,max=200"`
	Profession      null.String `json:"profession" validate:"omitempty,max=100"`
	Rating          null.Int    `json:"rating"`
	Status          null.String `json:"status" validate:"omitempty,oneof=active archived blacklisted"`
	Classifications *[]string   `json:"classifications" validate:"omitnil,max=20,dive,notblank,max=100"`
	Notes           null.String `json:"notes" validate:"omitempty,max=5000"`
	RelationHistory null.String `json:"relationHistory" validate:"omitempty,max=10000"`
}

// Empty reports whether the request changes nothing.
func (r UpdatePartnerRequest) Empty() bool {
	return !r.FirstName.Valid && !r.LastName.Valid && !r.Email.Valid && !r.Phone.Valid &&
		!r.Company.Valid && !r.Profession.Valid && !r.Rating.Valid && !r.Status.Valid &&
		r.Classifications == nil && !r.Notes.Valid && !r.RelationHistory.Valid
}

// ListFilter drives GET /api/partners and the advanced search.
type ListFilter struct {
	Search         string
	Status         string
	Classification string
	Job            string
	SortBy         string
	SortOrder      string
	Page           shared.PageRequest
}
