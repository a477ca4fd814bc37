package models

import (
	"fmt"
	"strings"
)

type PreferenceCategory string

const (
	PrefZones     PreferenceCategory = "zones"
	PrefLifestyle PreferenceCategory = "lifestyle"
	PrefSchedule  PreferenceCategory = "schedule"
	PrefPets      PreferenceCategory = "pets"
	PrefLanguages PreferenceCategory = "languages"
)

const (
	maxPreferenceValues = 20
	maxPreferenceLength = 50
)

var preferenceCategories = map[PreferenceCategory]bool{
	PrefZones:     true,
	PrefLifestyle: true,
	PrefSchedule:  true,
	PrefPets:      true,
	PrefLanguages: true,
}

// Preferences maps a closed set of categories to their selected values.
type Preferences map[PreferenceCategory][]string

// Validate rejects unknown categories and oversized value lists.
func (p Preferences) Validate() error {
	for category, values := range p {
		if !preferenceCategories[category] {
			return fmt.Errorf("unknown preference category %q", category)
		}
		if len(values) > maxPreferenceValues {
			return fmt.Errorf("preference %q accepts at most %d values", category, maxPreferenceValues)
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || len(v) > maxPreferenceLength {
				return fmt.Errorf("invalid value in preference %q", category)
			}
		}
	}
	return nil
}

// Normalized returns a copy with trimmed, lowercased, de-duplicated values.
func (p Preferences) Normalized() Preferences {
	out := make(Preferences, len(p))
	for category, values := range p {
		seen := make(map[string]bool, len(values))
		clean := make([]string, 0, len(values))
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			clean = append(clean, v)
		}
		out[category] = clean
	}
	return out
}
