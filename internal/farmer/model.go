package farmer

import "time"

// Profile is the farming profile attached to a user account. A user owns at
// most one profile.
type Profile struct {
	FarmerID          string
	UserID            int64
	Name              string
	District          string
	State             string
	PreferredLanguage string
	PrimaryCrops      []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateInput carries the fields of a new profile.
type CreateInput struct {
	Name              string
	District          string
	State             string
	PreferredLanguage string
	PrimaryCrops      []string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name              *string
	District          *string
	State             *string
	PreferredLanguage *string
	PrimaryCrops      *[]string
}

func (in UpdateInput) apply(p *Profile) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.District != nil {
		p.District = *in.District
	}
	if in.State != nil {
		p.State = *in.State
	}
	if in.PreferredLanguage != nil {
		p.PreferredLanguage = *in.PreferredLanguage
	}
	if in.PrimaryCrops != nil {
		p.PrimaryCrops = append([]string(nil), (*in.PrimaryCrops)...)
	}
}
