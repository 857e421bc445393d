// ABOUTME: Tests for partial-update changesets and timestamp helpers
// ABOUTME: Covers Apply/Fields agreement, ordering of images and sections, and NextUpdatedAt

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestNextUpdatedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev time.Time
		now  time.Time
		want time.Time
	}{
		{"later clock wins", base, base.Add(time.Second), base.Add(time.Second)},
		{"same instant bumps", base, base, base.Add(time.Millisecond)},
		{"clock behind bumps", base, base.Add(-time.Hour), base.Add(time.Millisecond)},
		{"sub-millisecond truncated", base, base.Add(500 * time.Microsecond), base.Add(time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextUpdatedAt(tt.prev, tt.now)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.True(t, got.After(tt.prev))
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, ListLimit, clampLimit(0))
	assert.Equal(t, ListLimit, clampLimit(-3))
	assert.Equal(t, ListLimit, clampLimit(ListLimit+1))
	assert.Equal(t, 7, clampLimit(7))
}

func TestStoreUpdate_ApplyOnlyTouchesSetFields(t *testing.T) {
	st := &Store{Name: "Boutique Amina", Industry: "fashion", Description: "Mode"}

	StoreUpdate{Name: ptr("Boutique Awa")}.Apply(st)

	assert.Equal(t, "Boutique Awa", st.Name)
	assert.Equal(t, "fashion", st.Industry)
	assert.Equal(t, "Mode", st.Description)
	assert.NotNil(t, st.Settings)
}

func TestStoreUpdate_FieldsMatchApply(t *testing.T) {
	upd := StoreUpdate{Description: ptr(""), Domain: ptr("amina.shop")}

	assert.Equal(t, map[string]any{"description": "", "domain": "amina.shop"}, upd.Fields())
	assert.Empty(t, StoreUpdate{}.Fields())
}

func TestProductUpdate_SortsImages(t *testing.T) {
	images := []ProductImage{
		{URL: "c.jpg", Order: 2},
		{URL: "a.jpg", Order: 0},
		{URL: "b1.jpg", Order: 1},
		{URL: "b2.jpg", Order: 1},
	}
	upd := ProductUpdate{Images: images}

	p := &Product{Name: "Sac en cuir", Price: 10}
	upd.Apply(p)

	var urls []string
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	assert.Equal(t, []string{"a.jpg", "b1.jpg", "b2.jpg", "c.jpg"}, urls)

	fieldImages := upd.Fields()["images"].([]ProductImage)
	assert.Equal(t, p.Images, fieldImages)
	assert.Equal(t, "Sac en cuir", p.Name)
}

func TestProductUpdate_CompareAtPrice(t *testing.T) {
	p := &Product{Price: 45000}
	ProductUpdate{CompareAtPrice: ptr(60000.0)}.Apply(p)

	if assert.NotNil(t, p.CompareAtPrice) {
		assert.Equal(t, 60000.0, *p.CompareAtPrice)
	}
	assert.Equal(t, 45000.0, p.Price)
	assert.Equal(t, []ProductVariant{}, p.Variants)
	assert.Equal(t, []string{}, p.Tags)
}

func TestPageUpdate_SortsSectionsAndFillsSettings(t *testing.T) {
	upd := PageUpdate{Sections: []PageSection{
		{ID: "s2", Type: "features", Order: 1},
		{ID: "s1", Type: "hero", Order: 0, Settings: map[string]any{"title": "Bienvenue"}},
	}}

	p := &Page{Title: "Accueil", Slug: "accueil"}
	upd.Apply(p)

	assert.Equal(t, "s1", p.Sections[0].ID)
	assert.Equal(t, "s2", p.Sections[1].ID)
	assert.Equal(t, map[string]any{}, p.Sections[1].Settings)

	sections := upd.Fields()["sections"].([]PageSection)
	assert.Equal(t, "s1", sections[0].ID)
	// the caller's slice is not reordered by Fields
	assert.Equal(t, "s2", upd.Sections[0].ID)
}
