package models

import (
	"errors"
	"fmt"
	"strings"
)

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeOrange Theme = "orange"
	ThemeTeal   Theme = "teal"
	ThemeSlate  Theme = "slate"
	ThemeStone  Theme = "stone"
)

// ErrUnknownTheme is returned for a theme outside the supported set.
var ErrUnknownTheme = errors.New("unknown theme")

// Preferences holds per-user UI settings.
type Preferences struct {
	OwnerID string `bson:"_id" json:"ownerId"`
	Theme   Theme  `bson:"theme" json:"theme"`
}

// DefaultPreferences returns the settings used before a user saves any.
func DefaultPreferences(ownerID string) Preferences {
	return Preferences{OwnerID: ownerID, Theme: ThemeOrange}
}

// ParseTheme converts raw input into a Theme.
func ParseTheme(raw string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(raw))); t {
	case ThemeOrange, ThemeTeal, ThemeSlate, ThemeStone:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, raw)
	}
}
