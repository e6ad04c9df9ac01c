package dashboard

// Stats summarises the partner directory.
type Stats struct {
	TotalPartners       int     `json:"totalPartners"`
	ActivePartners      int     `json:"activePartners"`
	ArchivedPartners    int     `json:"archivedPartners"`
	BlacklistedPartners int     `json:"blacklistedPartners"`
	AverageRating       float64 `json:"averageRating"`
	Classifications     int     `json:"classifications"`
	RecentlyAdded       int     `json:"recentlyAdded"`
}

// RatingBucket counts active partners with a given rating.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// ProfessionCount counts active partners per profession.
type ProfessionCount struct {
	Profession string `json:"profession"`
	Count      int    `json:"count"`
}
