// ABOUTME: DocumentStore interface and data types for easyshop-api persistence
// ABOUTME: Defines the Store, Product and Page documents and their partial-update payloads

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSlug is returned when a page slug is already used within the same store
var ErrDuplicateSlug = errors.New("slug already exists in store")

// ErrConflict is returned when an update keeps losing to concurrent writes
var ErrConflict = errors.New("concurrent update conflict")

// ListLimit caps every list query.
const ListLimit = 100

// Store is a user's shop. Deletion is soft: IsActive is cleared.
type Store struct {
	ID          string         `json:"id" bson:"_id"`
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Industry    string         `json:"industry" bson:"industry"` // fashion, electronics, beauty, food, ...
	LogoURL     string         `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
	Domain      string         `json:"domain,omitempty" bson:"domain,omitempty"`
	Settings    map[string]any `json:"settings" bson:"settings"`
	UserID      string         `json:"user_id" bson:"user_id"`
	IsActive    bool           `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// ProductImage is one entry of a product's ordered gallery
type ProductImage struct {
	URL   string `json:"url" bson:"url"`
	Alt   string `json:"alt,omitempty" bson:"alt,omitempty"`
	Order int    `json:"order" bson:"order"`
}

// ProductVariant is a purchasable option of a product (size, color, ...)
type ProductVariant struct {
	ID             string   `json:"id" bson:"id"`
	Name           string   `json:"name" bson:"name"`
	Price          float64  `json:"price" bson:"price"`
	CompareAtPrice *float64 `json:"compare_at_price,omitempty" bson:"compare_at_price,omitempty"`
	SKU            string   `json:"sku,omitempty" bson:"sku,omitempty"`
	Stock          int      `json:"stock" bson:"stock"`
}

// Product belongs to exactly one store
type Product struct {
	ID             string           `json:"id" bson:"_id"`
	Name           string           `json:"name" bson:"name"`
	Description    string           `json:"description,omitempty" bson:"description,omitempty"`
	StoreID        string           `json:"store_id" bson:"store_id"`
	Price          float64          `json:"price" bson:"price"`
	CompareAtPrice *float64         `json:"compare_at_price,omitempty" bson:"compare_at_price,omitempty"`
	Images         []ProductImage   `json:"images" bson:"images"`
	Variants       []ProductVariant `json:"variants" bson:"variants"`
	Category       string           `json:"category,omitempty" bson:"category,omitempty"`
	Tags           []string         `json:"tags" bson:"tags"`
	IsActive       bool             `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updated_at"`
}

// PageSection is one block of a page layout (hero, features, ...)
type PageSection struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Settings map[string]any `json:"settings" bson:"settings"`
	Order    int            `json:"order" bson:"order"`
}

// Page is a store page addressed publicly by its slug
type Page struct {
	ID             string        `json:"id" bson:"_id"`
	Title          string        `json:"title" bson:"title"`
	Slug           string        `json:"slug" bson:"slug"`
	StoreID        string        `json:"store_id" bson:"store_id"`
	Sections       []PageSection `json:"sections" bson:"sections"`
	IsPublished    bool          `json:"is_published" bson:"is_published"`
	SEOTitle       string        `json:"seo_title,omitempty" bson:"seo_title,omitempty"`
	SEODescription string        `json:"seo_description,omitempty" bson:"seo_description,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

// StoreUpdate carries a partial store update. Nil fields are left untouched.
type StoreUpdate struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Industry    *string        `json:"industry"`
	LogoURL     *string        `json:"logo_url"`
	Domain      *string        `json:"domain"`
	Settings    map[string]any `json:"settings"`
}

// ProductUpdate carries a partial product update. Nil fields are left untouched.
type ProductUpdate struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *float64         `json:"price"`
	CompareAtPrice *float64         `json:"compare_at_price"`
	Images         []ProductImage   `json:"images"`
	Variants       []ProductVariant `json:"variants"`
	Category       *string          `json:"category"`
	Tags           []string         `json:"tags"`
	IsActive       *bool            `json:"is_active"`
}

// PageUpdate carries a partial page update. Nil fields are left untouched.
type PageUpdate struct {
	Title          *string       `json:"title"`
	Slug           *string       `json:"slug"`
	Sections       []PageSection `json:"sections"`
	IsPublished    *bool         `json:"is_published"`
	SEOTitle       *string       `json:"seo_title"`
	SEODescription *string       `json:"seo_description"`
}

// DocumentStore defines the persistence operations behind the CRUD routes.
//
// Store lookups are always scoped to the owner and to active stores. Product and
// page lookups are by id only; callers resolve ownership through the parent store.
type DocumentStore interface {
	// Stores
	CreateStore(ctx context.Context, s *Store) error
	GetStore(ctx context.Context, id, userID string) (*Store, error)
	GetActiveStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context, userID string, limit int) ([]*Store, error)
	UpdateStore(ctx context.Context, id, userID string, upd StoreUpdate, now time.Time) (*Store, error)
	DeactivateStore(ctx context.Context, id, userID string, now time.Time) error

	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, storeID string, limit int) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, upd ProductUpdate, now time.Time) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Pages
	CreatePage(ctx context.Context, p *Page) error
	GetPage(ctx context.Context, id string) (*Page, error)
	GetPageBySlug(ctx context.Context, storeID, slug string) (*Page, error)
	ListPages(ctx context.Context, storeID string, limit int) ([]*Page, error)
	UpdatePage(ctx context.Context, id string, upd PageUpdate, now time.Time) (*Page, error)
	DeletePage(ctx context.Context, id string) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
