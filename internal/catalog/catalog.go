// Package catalog derives read-only views over a user's plant collection.
package catalog

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/normalize"
)

const unknownBucket = "unknown"

// Keyword sets for ClassifyGroup. Vegetables are checked before fruit.
var (
	vegetableKeywords = map[string]struct{}{
		"cabai": {}, "cabe": {}, "tomat": {}, "terong": {}, "bayam": {}, "kangkung": {},
		"sawi": {}, "selada": {}, "timun": {}, "mentimun": {}, "buncis": {}, "kacang": {},
		"pakcoy": {}, "seledri": {}, "bawang": {}, "wortel": {}, "kol": {}, "brokoli": {},
	}
	fruitKeywords = map[string]struct{}{
		"mangga": {}, "anggur": {}, "jeruk": {}, "jambu": {}, "alpukat": {}, "durian": {},
		"pepaya": {}, "pisang": {}, "lemon": {}, "kelengkeng": {}, "rambutan": {}, "manggis": {},
		"nanas": {}, "melon": {}, "semangka": {}, "sirsak": {}, "tin": {}, "stroberi": {},
		"strawberry": {}, "delima": {}, "belimbing": {}, "leci": {},
	}
)

// Catalog is an immutable snapshot of one user's plants.
type Catalog struct {
	plants []models.Plant
	byID   map[string]models.Plant
}

// New copies plants into a new Catalog; later changes to the input slice do
// not leak into it.
func New(plants []models.Plant) *Catalog {
	c := &Catalog{
		plants: append([]models.Plant(nil), plants...),
		byID:   make(map[string]models.Plant, len(plants)),
	}
	for _, p := range c.plants {
		if p.ID != "" {
			c.byID[p.ID] = p
		}
	}
	return c
}

// Plants returns a copy of the snapshot.
func (c *Catalog) Plants() []models.Plant {
	return append([]models.Plant(nil), c.plants...)
}

// Find looks a plant up by id.
func (c *Catalog) Find(id string) (models.Plant, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Categories lists the distinct categories, deduplicated case-insensitively.
func (c *Catalog) Categories() []string {
	raw := make([]string, 0, len(c.plants))
	for _, p := range c.plants {
		raw = append(raw, p.Category)
	}
	return normalize.DedupeFold(raw)
}

// Groups lists the distinct stored groups, deduplicated case-insensitively.
func (c *Catalog) Groups() []string {
	raw := make([]string, 0, len(c.plants))
	for _, p := range c.plants {
		raw = append(raw, p.GroupID)
	}
	return normalize.DedupeFold(raw)
}

// ClassifyGroup guesses a plant's group. A canonical stored group wins;
// otherwise the category words are matched against the vegetable keywords
// and then the fruit keywords. This is a heuristic and can be wrong.
func ClassifyGroup(p models.Plant) string {
	stored := strings.TrimSpace(p.GroupID)
	if models.PlantGroup(strings.ToLower(stored)).IsCanonical() {
		return stored
	}

	words := strings.Fields(strings.ToLower(p.Category))
	for _, set := range []struct {
		keywords map[string]struct{}
		group    models.PlantGroup
	}{
		{vegetableKeywords, models.GroupVegetable},
		{fruitKeywords, models.GroupFruit},
	} {
		for _, w := range words {
			if _, ok := set.keywords[w]; ok {
				return string(set.group)
			}
		}
	}

	if stored != "" {
		return stored
	}
	return string(models.GroupOther)
}

// GroupAndSort partitions the plants by ClassifyGroup and sorts each
// partition by category and variety, ignoring case.
func (c *Catalog) GroupAndSort() map[string][]models.Plant {
	out := make(map[string][]models.Plant)
	for _, p := range c.plants {
		g := ClassifyGroup(p)
		out[g] = append(out[g], p)
	}
	for _, members := range out {
		sort.SliceStable(members, func(i, j int) bool {
			return normalize.Compare(sortKey(members[i]), sortKey(members[j])) < 0
		})
	}
	return out
}

func sortKey(p models.Plant) string {
	return strings.ToLower(p.Category + p.Variety)
}

// Filter returns the plants whose category, variety or alias contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Filter(query string) []models.Plant {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Plant, 0, len(c.plants))
	for _, p := range c.plants {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Variety), q) ||
			strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// Bucket is a named slice of search results sharing a category group key.
type Bucket struct {
	Key     string         `json:"key"`
	Display string         `json:"display"`
	Plants  []models.Plant `json:"plants"`
}

// Search filters the plants by query and buckets the matches by the first
// word of their category, for picking a single target plant.
func (c *Catalog) Search(query string) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)

	for _, p := range c.Filter(query) {
		key := normalize.GroupKey(p.Category)
		if key == "" {
			key = unknownBucket
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Display: capitalize(key)})
		}
		buckets[i].Plants = append(buckets[i].Plants, p)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return normalize.Compare(buckets[i].Key, buckets[j].Key) < 0
	})
	for _, b := range buckets {
		sort.SliceStable(b.Plants, func(i, j int) bool {
			return normalize.Compare(strings.ToLower(b.Plants[i].Variety), strings.ToLower(b.Plants[j].Variety)) < 0
		})
	}
	return buckets
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
