// ABOUTME: Backend selection for the document store from the database URL
// ABOUTME: mongodb:// goes to Mongo, postgres:// to pgx, anything else is a SQLite path

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/easyshop/easyshop-api/internal/config"
)

// Backend identifies a DocumentStore implementation
type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// BackendFor picks the backend for a database URL by its scheme
func BackendFor(url string) Backend {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return BackendMongo
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres
	default:
		return BackendSQLite
	}
}

// Open connects the backend selected by cfg.URL
func Open(ctx context.Context, cfg config.DatabaseConfig) (DocumentStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}
	switch BackendFor(cfg.URL) {
	case BackendMongo:
		return NewMongoStore(ctx, cfg.URL, cfg.Name)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.URL)
	default:
		return NewSQLiteStore(strings.TrimPrefix(cfg.URL, "sqlite://"))
	}
}
