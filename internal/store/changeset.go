// ABOUTME: Partial-update changesets shared by every backend
// ABOUTME: Apply merges non-nil fields; Fields renders the same change as a $set map

package store

import (
	"sort"
	"time"
)

// Timestamp precision shared by all backends (BSON dates are millisecond-precise).
const timestampPrecision = time.Millisecond

// Now returns the current UTC time at store precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(timestampPrecision)
}

// NextUpdatedAt returns a timestamp strictly after prev.
// now is used when it is already later; otherwise prev plus one tick.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(timestampPrecision)
	if now.After(prev) {
		return now
	}
	return prev.Add(timestampPrecision)
}

// clampLimit keeps list sizes within [1, ListLimit].
func clampLimit(limit int) int {
	if limit <= 0 || limit > ListLimit {
		return ListLimit
	}
	return limit
}

// Normalize fills empty collections and orders images and sections by their
// order field. It runs before every write.
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	if p.Variants == nil {
		p.Variants = []ProductVariant{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	sort.SliceStable(p.Images, func(i, j int) bool { return p.Images[i].Order < p.Images[j].Order })
}

// Normalize fills empty collections and orders sections by their order field.
func (p *Page) Normalize() {
	if p.Sections == nil {
		p.Sections = []PageSection{}
	}
	for i := range p.Sections {
		if p.Sections[i].Settings == nil {
			p.Sections[i].Settings = map[string]any{}
		}
	}
	sort.SliceStable(p.Sections, func(i, j int) bool { return p.Sections[i].Order < p.Sections[j].Order })
}

// Normalize fills an empty settings map.
func (s *Store) Normalize() {
	if s.Settings == nil {
		s.Settings = map[string]any{}
	}
}

// Apply merges the non-nil fields into s.
func (u StoreUpdate) Apply(s *Store) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Industry != nil {
		s.Industry = *u.Industry
	}
	if u.LogoURL != nil {
		s.LogoURL = *u.LogoURL
	}
	if u.Domain != nil {
		s.Domain = *u.Domain
	}
	if u.Settings != nil {
		s.Settings = u.Settings
	}
	s.Normalize()
}

// Fields returns the changed document fields keyed by their stored names.
func (u StoreUpdate) Fields() map[string]any {
	m := map[string]any{}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Industry != nil {
		m["industry"] = *u.Industry
	}
	if u.LogoURL != nil {
		m["logo_url"] = *u.LogoURL
	}
	if u.Domain != nil {
		m["domain"] = *u.Domain
	}
	if u.Settings != nil {
		m["settings"] = u.Settings
	}
	return m
}

// Apply merges the non-nil fields into p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.CompareAtPrice != nil {
		v := *u.CompareAtPrice
		p.CompareAtPrice = &v
	}
	if u.Images != nil {
		p.Images = append([]ProductImage(nil), u.Images...)
	}
	if u.Variants != nil {
		p.Variants = u.Variants
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Tags != nil {
		p.Tags = u.Tags
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.Normalize()
}

// Fields returns the changed document fields keyed by their stored names.
func (u ProductUpdate) Fields() map[string]any {
	m := map[string]any{}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Price != nil {
		m["price"] = *u.Price
	}
	if u.CompareAtPrice != nil {
		m["compare_at_price"] = *u.CompareAtPrice
	}
	if u.Images != nil {
		images := append([]ProductImage(nil), u.Images...)
		sort.SliceStable(images, func(i, j int) bool { return images[i].Order < images[j].Order })
		m["images"] = images
	}
	if u.Variants != nil {
		m["variants"] = u.Variants
	}
	if u.Category != nil {
		m["category"] = *u.Category
	}
	if u.Tags != nil {
		m["tags"] = u.Tags
	}
	if u.IsActive != nil {
		m["is_active"] = *u.IsActive
	}
	return m
}

// Apply merges the non-nil fields into p.
func (u PageUpdate) Apply(p *Page) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Slug != nil {
		p.Slug = *u.Slug
	}
	if u.Sections != nil {
		p.Sections = append([]PageSection(nil), u.Sections...)
	}
	if u.IsPublished != nil {
		p.IsPublished = *u.IsPublished
	}
	if u.SEOTitle != nil {
		p.SEOTitle = *u.SEOTitle
	}
	if u.SEODescription != nil {
		p.SEODescription = *u.SEODescription
	}
	p.Normalize()
}

// Fields returns the changed document fields keyed by their stored names.
func (u PageUpdate) Fields() map[string]any {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Slug != nil {
		m["slug"] = *u.Slug
	}
	if u.Sections != nil {
		tmp := Page{Sections: append([]PageSection(nil), u.Sections...)}
		tmp.Normalize()
		m["sections"] = tmp.Sections
	}
	if u.IsPublished != nil {
		m["is_published"] = *u.IsPublished
	}
	if u.SEOTitle != nil {
		m["seo_title"] = *u.SEOTitle
	}
	if u.SEODescription != nil {
		m["seo_description"] = *u.SEODescription
	}
	return m
}
