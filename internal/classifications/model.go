package classifications

import (
	"time"

	"github.com/google/uuid"
)

// Classification is a stored relationship tag.
type Classification struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// Derived is a classification computed from the labels carried by partners.
// ID is the normalized key of the label.
type Derived struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Label        string `json:"label"`
	PartnerCount int    `json:"partnerCount"`
}
