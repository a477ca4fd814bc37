package services

import (
	"time"

	"github.com/princeprakhar/roomies-backend/internal/models"
)

// PublicProfile is a user as seen by someone else. The sensitive fields are
// nil unless the owner revealed them to the viewer.
type PublicProfile struct {
	Username    string             `json:"username"`
	Name        string             `json:"name"`
	Bio         string             `json:"bio"`
	Age         int                `json:"age"`
	HasPlace    bool               `json:"has_place"`
	IsPremium   bool               `json:"is_premium"`
	IsVerified  bool               `json:"is_verified"`
	Photos      []string           `json:"photos"`
	Preferences models.Preferences `json:"preferences,omitempty"`
	Zones       []string           `json:"zones,omitempty"`
	Budget      *int               `json:"budget,omitempty"`
	Contact     *string            `json:"contact,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func publicProfile(u *models.User) PublicProfile {
	photos := []string(u.Photos)
	if photos == nil {
		photos = []string{}
	}
	return PublicProfile{
		Username:    u.Username,
		Name:        u.Name,
		Bio:         u.Bio,
		Age:         u.Age,
		HasPlace:    u.HasPlace,
		IsPremium:   u.IsPremium,
		IsVerified:  u.IsVerified,
		Photos:      photos,
		Preferences: withoutZones(u.Preferences),
		CreatedAt:   u.CreatedAt,
	}
}

// withoutZones copies prefs minus the zones category, which is disclosed
// together with the Zones field.
func withoutZones(prefs models.Preferences) models.Preferences {
	if _, ok := prefs[models.PrefZones]; !ok {
		return prefs
	}
	out := make(models.Preferences, len(prefs))
	for category, values := range prefs {
		if category != models.PrefZones {
			out[category] = values
		}
	}
	return out
}

// showZones restores what withoutZones hid once the viewer may see zones.
func (p *PublicProfile) showZones(target *models.User) {
	p.Zones = target.Zones
	p.Preferences = target.Preferences
}

// profileFor applies target's disclosure record for viewer to the public view.
func profileFor(viewer string, target *models.User) PublicProfile {
	profile := publicProfile(target)
	if viewer == target.Username {
		profile.showZones(target)
		profile.Budget = &target.Budget
		profile.Contact = &target.Contact
		return profile
	}
	revealed := target.RevealedTo(viewer)
	if revealed == nil {
		return profile
	}
	if revealed.RevealedZones {
		profile.showZones(target)
	}
	if revealed.RevealedBudget {
		budget := target.Budget
		profile.Budget = &budget
	}
	if revealed.RevealedContact {
		contact := target.Contact
		profile.Contact = &contact
	}
	return profile
}
