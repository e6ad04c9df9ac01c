package partners

import (
	"errors"
	"strings"

	"github.com/guregu/null/v5"

	"github.com/bondly/bondly/internal/platform/httpx"
)

func (s *Service) validateCreate(req *CreatePartnerRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = trimOptional(req.Phone)
	req.Company = trimOptional(req.Company)
	req.Profession = trimOptional(req.Profession)
	req.Notes = trimOptional(req.Notes)
	req.RelationHistory = trimOptional(req.RelationHistory)
	req.Classifications = normalizeLabels(req.Classifications)
	if req.Status == "" {
		req.Status = StatusActive
	}
	return s.validator.Struct(req)
}

func (s *Service) validateUpdate(req *UpdatePartnerRequest) error {
	req.FirstName = trimNull(req.FirstName)
	req.LastName = trimNull(req.LastName)
	req.Email = trimNull(req.Email)
	if req.Email.Valid {
		req.Email.String = strings.ToLower(req.Email.String)
	}
	req.Phone = trimNull(req.Phone)
	req.Company = trimNull(req.Company)
	req.Profession = trimNull(req.Profession)
	req.Notes = trimNull(req.Notes)
	req.RelationHistory = trimNull(req.RelationHistory)
	if req.Classifications != nil {
		labels := normalizeLabels(*req.Classifications)
		req.Classifications = &labels
	}

	fields := map[string]string{}
	if err := s.validator.Struct(req); err != nil {
		var verr *httpx.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	// omitempty lets blank values through; required columns cannot be cleared.
	for name, value := range map[string]null.String{
		"firstName": req.FirstName,
		"lastName":  req.LastName,
		"email":     req.Email,
		"status":    req.Status,
	} {
		if value.Valid && value.String == "" {
			fields[name] = name + " est requis"
		}
	}
	if req.Rating.Valid && (req.Rating.Int64 < 1 || req.Rating.Int64 > 5) {
		fields["rating"] = "rating doit être compris entre 1 et 5"
	}
	if len(fields) > 0 {
		return httpx.NewValidationError(fields)
	}
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func trimNull(v null.String) null.String {
	if !v.Valid {
		return v
	}
	return null.StringFrom(strings.TrimSpace(v.String))
}

// normalizeLabels trims labels and drops exact duplicates, keeping order.
// Blank labels are kept so validation can report them.
func normalizeLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}
