package classifications

import "github.com/guregu/null/v5"

type CreateRequest struct {
	Name  string  `json:"name" validate:"required,notblank,max=100"`
	Label *string `json:"label,omitempty" validate:"omitempty,max=100"`
}

// UpdateRequest changes the display label. Names are immutable because
// partners reference classifications by name.
type UpdateRequest struct {
	Label null.String `json:"label" validate:"omitempty,max=100"`
}

const SourcePartners = "partners"
