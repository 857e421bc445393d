// ABOUTME: SQL implementation of DocumentStore for SQLite (modernc) and Postgres (pgx)
// ABOUTME: Entities are stored as JSON documents beside indexed ownership and ordering columns

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL engine behind an SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sortableTime is fixed-width so lexical order on TEXT columns matches time order.
const sortableTime = "2006-01-02T15:04:05.000Z"

const (
	tableStores   = "stores"
	tableProducts = "products"
	tablePages    = "pages"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		is_active BOOLEAN NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stores_user_active ON stores(user_id, is_active, created_at)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_store_created ON products(store_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		doc TEXT NOT NULL,
		CONSTRAINT pages_store_slug_key UNIQUE (store_id, slug)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_store_created ON pages(store_id, created_at)`,
}

// SQLStore implements DocumentStore on database/sql
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	logger  *slog.Logger
}

var _ DocumentStore = (*SQLStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	s, err := newSQLStore(context.Background(), db, DialectSQLite)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// NewPostgresStore connects to Postgres through the pgx stdlib driver.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	db, err := sql.Open("pgx", stdlib.RegisterConnConfig(connConfig))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	s, err := newSQLStore(ctx, db, DialectPostgres)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Postgres store initialized", "host", connConfig.Host, "database", connConfig.Database)
	return s, nil
}

// statementBuilder returns a builder using the placeholder style of dialect.
func statementBuilder(dialect Dialect) sq.StatementBuilderType {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return sq.StatementBuilder.PlaceholderFormat(placeholder)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		sb:      statementBuilder(dialect).RunWith(db),
		logger:  slog.Default().With("component", "store", "backend", string(dialect)),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return s, nil
}

// Dialect reports the engine this store talks to
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Ping checks that the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Debug("closing SQL store")
	return s.db.Close()
}

// Stores

// CreateStore inserts a new store document
func (s *SQLStore) CreateStore(ctx context.Context, st *Store) error {
	st.Normalize()
	return s.insert(ctx, tableStores, st, map[string]any{
		"id":         st.ID,
		"user_id":    st.UserID,
		"is_active":  st.IsActive,
		"created_at": formatTime(st.CreatedAt),
		"updated_at": formatTime(st.UpdatedAt),
	})
}

// GetStore returns an active store owned by userID
func (s *SQLStore) GetStore(ctx context.Context, id, userID string) (*Store, error) {
	var st Store
	if err := s.getDoc(ctx, tableStores, sq.Eq{"id": id, "user_id": userID, "is_active": true}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetActiveStore returns an active store regardless of owner
func (s *SQLStore) GetActiveStore(ctx context.Context, id string) (*Store, error) {
	var st Store
	if err := s.getDoc(ctx, tableStores, sq.Eq{"id": id, "is_active": true}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStores returns the user's active stores, oldest first
func (s *SQLStore) ListStores(ctx context.Context, userID string, limit int) ([]*Store, error) {
	return listDocs[Store](ctx, s, tableStores, sq.Eq{"user_id": userID, "is_active": true}, limit)
}

// UpdateStore merges upd into an active owned store
func (s *SQLStore) UpdateStore(ctx context.Context, id, userID string, upd StoreUpdate, now time.Time) (*Store, error) {
	var st *Store
	err := retryStale(func() error {
		var err error
		if st, err = s.GetStore(ctx, id, userID); err != nil {
			return err
		}
		guard := sq.Eq{"id": id, "is_active": true, "updated_at": formatTime(st.UpdatedAt)}
		upd.Apply(st)
		st.UpdatedAt = NextUpdatedAt(st.UpdatedAt, now)
		return s.writeDoc(ctx, tableStores, guard, st, map[string]any{"updated_at": formatTime(st.UpdatedAt)})
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// DeactivateStore soft-deletes an owned store
func (s *SQLStore) DeactivateStore(ctx context.Context, id, userID string, now time.Time) error {
	return retryStale(func() error {
		st, err := s.GetStore(ctx, id, userID)
		if err != nil {
			return err
		}
		guard := sq.Eq{"id": id, "is_active": true, "updated_at": formatTime(st.UpdatedAt)}
		st.IsActive = false
		st.UpdatedAt = NextUpdatedAt(st.UpdatedAt, now)
		return s.writeDoc(ctx, tableStores, guard, st, map[string]any{
			"is_active":  false,
			"updated_at": formatTime(st.UpdatedAt),
		})
	})
}

// Products

// CreateProduct inserts a new product document
func (s *SQLStore) CreateProduct(ctx context.Context, p *Product) error {
	p.Normalize()
	return s.insert(ctx, tableProducts, p, map[string]any{
		"id":         p.ID,
		"store_id":   p.StoreID,
		"created_at": formatTime(p.CreatedAt),
		"updated_at": formatTime(p.UpdatedAt),
	})
}

// GetProduct returns a product by id
func (s *SQLStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := s.getDoc(ctx, tableProducts, sq.Eq{"id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns a store's products, oldest first
func (s *SQLStore) ListProducts(ctx context.Context, storeID string, limit int) ([]*Product, error) {
	return listDocs[Product](ctx, s, tableProducts, sq.Eq{"store_id": storeID}, limit)
}

// UpdateProduct merges upd into an existing product
func (s *SQLStore) UpdateProduct(ctx context.Context, id string, upd ProductUpdate, now time.Time) (*Product, error) {
	var p *Product
	err := retryStale(func() error {
		var err error
		if p, err = s.GetProduct(ctx, id); err != nil {
			return err
		}
		guard := sq.Eq{"id": id, "updated_at": formatTime(p.UpdatedAt)}
		upd.Apply(p)
		p.UpdatedAt = NextUpdatedAt(p.UpdatedAt, now)
		return s.writeDoc(ctx, tableProducts, guard, p, map[string]any{"updated_at": formatTime(p.UpdatedAt)})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product
func (s *SQLStore) DeleteProduct(ctx context.Context, id string) error {
	return s.delete(ctx, tableProducts, id)
}

// Pages

// CreatePage inserts a new page document
func (s *SQLStore) CreatePage(ctx context.Context, p *Page) error {
	p.Normalize()
	return s.insert(ctx, tablePages, p, map[string]any{
		"id":         p.ID,
		"store_id":   p.StoreID,
		"slug":       p.Slug,
		"created_at": formatTime(p.CreatedAt),
		"updated_at": formatTime(p.UpdatedAt),
	})
}

// GetPage returns a page by id
func (s *SQLStore) GetPage(ctx context.Context, id string) (*Page, error) {
	var p Page
	if err := s.getDoc(ctx, tablePages, sq.Eq{"id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPageBySlug returns the page with the given slug in a store
func (s *SQLStore) GetPageBySlug(ctx context.Context, storeID, slug string) (*Page, error) {
	var p Page
	if err := s.getDoc(ctx, tablePages, sq.Eq{"store_id": storeID, "slug": slug}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPages returns a store's pages, oldest first
func (s *SQLStore) ListPages(ctx context.Context, storeID string, limit int) ([]*Page, error) {
	return listDocs[Page](ctx, s, tablePages, sq.Eq{"store_id": storeID}, limit)
}

// UpdatePage merges upd into an existing page
func (s *SQLStore) UpdatePage(ctx context.Context, id string, upd PageUpdate, now time.Time) (*Page, error) {
	var p *Page
	err := retryStale(func() error {
		var err error
		if p, err = s.GetPage(ctx, id); err != nil {
			return err
		}
		guard := sq.Eq{"id": id, "updated_at": formatTime(p.UpdatedAt)}
		upd.Apply(p)
		p.UpdatedAt = NextUpdatedAt(p.UpdatedAt, now)
		return s.writeDoc(ctx, tablePages, guard, p, map[string]any{
			"slug":       p.Slug,
			"updated_at": formatTime(p.UpdatedAt),
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePage removes a page
func (s *SQLStore) DeletePage(ctx context.Context, id string) error {
	return s.delete(ctx, tablePages, id)
}

// helpers

func (s *SQLStore) insert(ctx context.Context, table string, doc any, cols map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", table, err)
	}
	cols["doc"] = string(raw)

	if _, err := s.sb.Insert(table).SetMap(cols).ExecContext(ctx); err != nil {
		if isSlugViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

// errStale reports that a guarded write matched no row.
var errStale = errors.New("document changed since read")

// maxUpdateAttempts bounds read-modify-write retries under contention.
const maxUpdateAttempts = 5

// retryStale reruns fn while its guarded write loses to a concurrent one.
func retryStale(fn func() error) error {
	for range maxUpdateAttempts {
		if err := fn(); !errors.Is(err, errStale) {
			return err
		}
	}
	return ErrConflict
}

// writeDoc replaces the document matching guard. The guard carries the
// updated_at value that was read, so a concurrent write makes it miss.
func (s *SQLStore) writeDoc(ctx context.Context, table string, guard sq.Eq, doc any, cols map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", table, err)
	}
	cols["doc"] = string(raw)

	result, err := s.sb.Update(table).SetMap(cols).Where(guard).ExecContext(ctx)
	if err != nil {
		if isSlugViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("updating %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return errStale
	}
	return nil
}

func (s *SQLStore) getDoc(ctx context.Context, table string, where sq.Eq, dst any) error {
	var raw string
	err := s.sb.Select("doc").From(table).Where(where).Limit(1).QueryRowContext(ctx).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decoding %s document: %w", table, err)
	}
	return nil
}

func (s *SQLStore) delete(ctx context.Context, table, id string) error {
	result, err := s.sb.Delete(table).Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return requireAffected(result)
}

type normalizer interface {
	Normalize()
}

func listDocs[T any, PT interface {
	*T
	normalizer
}](ctx context.Context, s *SQLStore, table string, where sq.Eq, limit int) ([]*T, error) {
	rows, err := s.sb.Select("doc").From(table).Where(where).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(clampLimit(limit))).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		doc := new(T)
		if err := json.Unmarshal([]byte(raw), doc); err != nil {
			return nil, fmt.Errorf("decoding %s document: %w", table, err)
		}
		PT(doc).Normalize()
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return out, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}

// slugConstraint names the (store_id, slug) unique key on pages.
const slugConstraint = "pages_store_slug_key"

// isSlugViolation reports a unique violation of the page slug key from either
// driver. Other unique failures, such as primary key clashes, are not slug clashes.
func isSlugViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == slugConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: pages.store_id, pages.slug")
}
