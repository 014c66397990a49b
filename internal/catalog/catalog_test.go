package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kebunku/internal/domain/models"
)

func samplePlants() []models.Plant {
	return []models.Plant{
		{ID: "p1", GroupID: "buah", Category: "Anggur", Variety: "Jupiter"},
		{ID: "p2", GroupID: "buah", Category: "anggur", Variety: "Akademik", Name: "pot besar"},
		{ID: "p3", GroupID: "Buah", Category: "ANGGUR", Variety: "Transfigurasi"},
		{ID: "p4", GroupID: "kebun", Category: "Tomat Ceri", Variety: "Cherry Red"},
		{ID: "p5", GroupID: "", Category: "Drosera Spatulata", Variety: "Tipe A"},
		{ID: "p6", GroupID: "carnivora", Category: "Drosera Capensis", Variety: "Alba"},
		{ID: "p7", GroupID: "", Category: "Mangga", Variety: "Arumanis"},
	}
}

func TestCategoriesDedupesCaseInsensitively(t *testing.T) {
	c := New(samplePlants())
	cats := c.Categories()

	var anggur []string
	for _, cat := range cats {
		if cat == "Anggur" || cat == "anggur" || cat == "ANGGUR" {
			anggur = append(anggur, cat)
		}
	}
	assert.Equal(t, []string{"Anggur"}, anggur)
	assert.Equal(t, []string{"Anggur", "Drosera Capensis", "Drosera Spatulata", "Mangga", "Tomat Ceri"}, cats)
}

func TestGroupsSkipsEmpty(t *testing.T) {
	c := New(samplePlants())
	assert.Equal(t, []string{"buah", "carnivora", "kebun"}, c.Groups())
}

func TestClassifyGroup(t *testing.T) {
	tests := []struct {
		name  string
		plant models.Plant
		want  string
	}{
		{name: "canonical stored group wins", plant: models.Plant{GroupID: "bunga", Category: "Tomat"}, want: "bunga"},
		{name: "vegetable keyword", plant: models.Plant{GroupID: "kebun", Category: "Tomat Ceri"}, want: "sayur"},
		{name: "fruit keyword", plant: models.Plant{Category: "Mangga Madu"}, want: "buah"},
		{name: "vegetable checked before fruit", plant: models.Plant{Category: "Tomat Anggur"}, want: "sayur"},
		{name: "falls back to stored group", plant: models.Plant{GroupID: "kebun", Category: "Monstera"}, want: "kebun"},
		{name: "falls back to other", plant: models.Plant{Category: "Monstera"}, want: "lainnya"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGroup(tt.plant))
		})
	}
}

func TestGroupAndSort(t *testing.T) {
	groups := New(samplePlants()).GroupAndSort()

	require.Len(t, groups["buah"], 3)
	assert.Equal(t, []string{"p2", "p1", "p7"}, ids(groups["buah"]))
	assert.Equal(t, []string{"p3"}, ids(groups["Buah"]))
	assert.Equal(t, []string{"p4"}, ids(groups["sayur"]))
	assert.Equal(t, []string{"p5"}, ids(groups["lainnya"]))
}

func TestFilterMatchesAlias(t *testing.T) {
	c := New(samplePlants())
	assert.Equal(t, []string{"p2"}, ids(c.Filter("BESAR")))
	assert.Len(t, c.Filter(""), len(samplePlants()))
}

func TestSearchBucketsByFirstWord(t *testing.T) {
	buckets := New(samplePlants()).Search("")
	require.Len(t, buckets, 4)

	assert.Equal(t, "anggur", buckets[0].Key)
	assert.Equal(t, "Anggur", buckets[0].Display)
	assert.Equal(t, []string{"p2", "p1", "p3"}, ids(buckets[0].Plants))

	assert.Equal(t, "drosera", buckets[1].Key)
	assert.Equal(t, []string{"p6", "p5"}, ids(buckets[1].Plants))
}

func TestNewCopiesInput(t *testing.T) {
	plants := samplePlants()
	c := New(plants)
	plants[0].Category = "changed"

	p, ok := c.Find("p1")
	require.True(t, ok)
	assert.Equal(t, "Anggur", p.Category)
}

func ids(plants []models.Plant) []string {
	out := make([]string, 0, len(plants))
	for _, p := range plants {
		out = append(out, p.ID)
	}
	return out
}
