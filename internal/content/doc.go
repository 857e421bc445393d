// Package content writes marketing copy for stores and products.
//
// Generator turns a StoreBrief into hero, features, about and cta sections, and
// a ProductBrief into SEO product copy. Models are asked for JSON; their answers
// go through Unwrap, which strips markdown fences and keeps non-JSON answers as
// {"raw": text} instead of failing.
package content
