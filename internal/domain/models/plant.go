package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlantGroup is the coarse bucket a plant belongs to. The recommended values
// are listed below but stored groups are free text.
type PlantGroup string

const (
	GroupFruit       PlantGroup = "buah"
	GroupFlower      PlantGroup = "bunga"
	GroupCarnivorous PlantGroup = "carnivora"
	GroupVegetable   PlantGroup = "sayur"
	GroupOther       PlantGroup = "lainnya"
)

// CanonicalGroups lists the recognized groups in display order.
var CanonicalGroups = []PlantGroup{GroupFruit, GroupFlower, GroupCarnivorous, GroupVegetable, GroupOther}

// IsCanonical reports whether g is one of the recognized groups.
func (g PlantGroup) IsCanonical() bool {
	for _, c := range CanonicalGroups {
		if g == c {
			return true
		}
	}
	return false
}

var (
	ErrCategoryRequired = errors.New("category must not be empty")
	ErrVarietyRequired  = errors.New("variety must not be empty")
	ErrOwnerRequired    = errors.New("owner id must not be empty")
)

// Plant is a single plant registered by a user.
type Plant struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	GroupID   string    `bson:"groupId" json:"groupId"`
	Category  string    `bson:"categoryId" json:"categoryId"`
	Variety   string    `bson:"variety" json:"variety"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Normalize trims every free-text field in place.
func (p *Plant) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.GroupID = strings.TrimSpace(p.GroupID)
	p.Category = strings.TrimSpace(p.Category)
	p.Variety = strings.TrimSpace(p.Variety)
}

// Validate checks the invariants that must hold before a plant is written.
func (p Plant) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrOwnerRequired
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrCategoryRequired
	}
	if strings.TrimSpace(p.Variety) == "" {
		return ErrVarietyRequired
	}
	return nil
}

// DisplayName renders "category - variety", with the alias appended in
// parentheses when one is set.
func (p Plant) DisplayName() string {
	base := fmt.Sprintf("%s - %s", p.Category, p.Variety)
	if p.Name == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, p.Name)
}

// PlantUpdate carries the optional fields of a plant edit. Nil fields are
// left untouched.
type PlantUpdate struct {
	Name     *string `json:"name,omitempty"`
	GroupID  *string `json:"groupId,omitempty"`
	Category *string `json:"categoryId,omitempty"`
	Variety  *string `json:"variety,omitempty"`
}

// Apply merges the update into p and trims the touched fields.
func (u PlantUpdate) Apply(p *Plant) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.GroupID != nil {
		p.GroupID = *u.GroupID
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Variety != nil {
		p.Variety = *u.Variety
	}
	p.Normalize()
}
