// ABOUTME: Tests for the SQL document store on SQLite
// ABOUTME: Covers store ownership and soft delete, product/page CRUD, slug uniqueness, and ordering

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newStore(userID, name string, at time.Time) *Store {
	return &Store{
		ID:        uuid.New().String(),
		Name:      name,
		Industry:  "fashion",
		UserID:    userID,
		IsActive:  true,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created in nested directory")
	assert.Equal(t, DialectSQLite, s.Dialect())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	st := newStore("u1", "Mémoire", Now())
	require.NoError(t, s.CreateStore(ctx, st))

	got, err := s.GetStore(ctx, st.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Mémoire", got.Name)
}

func TestSQLStore_StoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := Now()
	st := newStore("u1", "Boutique Amina", now)
	st.Settings = map[string]any{"currency": "XOF", "theme": map[string]any{"color": "green"}}
	require.NoError(t, s.CreateStore(ctx, st))

	got, err := s.GetStore(ctx, st.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, "Boutique Amina", got.Name)
	assert.Equal(t, "XOF", got.Settings["currency"])
	assert.Equal(t, map[string]any{"color": "green"}, got.Settings["theme"])
	assert.True(t, got.CreatedAt.Equal(now))
	assert.True(t, got.IsActive)
}

func TestSQLStore_StoreOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := newStore("u1", "Boutique Amina", Now())
	require.NoError(t, s.CreateStore(ctx, st))

	_, err := s.GetStore(ctx, st.ID, "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateStore(ctx, st.ID, "u2", StoreUpdate{Name: ptr("Volée")}, Now())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeactivateStore(ctx, st.ID, "u2", Now()), ErrNotFound)

	got, err := s.GetActiveStore(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boutique Amina", got.Name)
}

func TestSQLStore_UpdateStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := Now()
	st := newStore("u1", "Boutique Amina", created)
	st.Description = "Mode africaine"
	require.NoError(t, s.CreateStore(ctx, st))

	// a clock that has not moved still yields a later updated_at
	updated, err := s.UpdateStore(ctx, st.ID, "u1", StoreUpdate{Name: ptr("Boutique Awa")}, created)
	require.NoError(t, err)
	assert.Equal(t, "Boutique Awa", updated.Name)
	assert.Equal(t, "Mode africaine", updated.Description)
	assert.True(t, updated.UpdatedAt.After(created))
	assert.True(t, updated.CreatedAt.Equal(created))

	got, err := s.GetStore(ctx, st.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Boutique Awa", got.Name)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))

	again, err := s.UpdateStore(ctx, st.ID, "u1", StoreUpdate{}, created)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
}

func TestSQLStore_DeactivateStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := newStore("u1", "Boutique Amina", Now())
	require.NoError(t, s.CreateStore(ctx, st))
	require.NoError(t, s.DeactivateStore(ctx, st.ID, "u1", Now()))

	_, err := s.GetStore(ctx, st.ID, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetActiveStore(ctx, st.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateStore(ctx, st.ID, "u1", StoreUpdate{Name: ptr("x")}, Now())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListStores(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	// deactivating twice reports not found
	assert.ErrorIs(t, s.DeactivateStore(ctx, st.ID, "u1", Now()), ErrNotFound)
}

func TestSQLStore_ListStoresOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := Now()
	for i := 0; i < 5; i++ {
		// insert newest first to prove ordering comes from created_at
		at := base.Add(time.Duration(5-i) * time.Second)
		require.NoError(t, s.CreateStore(ctx, newStore("u1", fmt.Sprintf("store-%d", 5-i), at)))
	}
	require.NoError(t, s.CreateStore(ctx, newStore("u2", "other", base)))

	list, err := s.ListStores(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, st := range list {
		assert.Equal(t, fmt.Sprintf("store-%d", i+1), st.Name)
	}

	limited, err := s.ListStores(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := s.ListStores(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLStore_ProductCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := Now()
	p := &Product{
		ID:      uuid.New().String(),
		Name:    "Sac en cuir",
		StoreID: "store-1",
		Price:   25000,
		Images: []ProductImage{
			{URL: "back.jpg", Order: 1},
			{URL: "front.jpg", Order: 0},
		},
		Variants:  []ProductVariant{{ID: "v1", Name: "Marron", Price: 25000, Stock: 3}},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateProduct(ctx, p))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", got.Images[0].URL)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, 3, got.Variants[0].Stock)
	assert.Nil(t, got.CompareAtPrice)

	updated, err := s.UpdateProduct(ctx, p.ID, ProductUpdate{
		Price: ptr(22000.0),
		Tags:  []string{"cuir", "fait-main"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 22000.0, updated.Price)
	assert.Equal(t, "Sac en cuir", updated.Name)
	assert.Equal(t, []string{"cuir", "fait-main"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(now))

	list, err := s.ListProducts(ctx, "store-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 22000.0, list[0].Price)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrNotFound)

	_, err = s.UpdateProduct(ctx, p.ID, ProductUpdate{}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newPage(storeID, slug string, at time.Time) *Page {
	return &Page{
		ID:        uuid.New().String(),
		Title:     "Page " + slug,
		Slug:      slug,
		StoreID:   storeID,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestSQLStore_PageSlugUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := Now()
	require.NoError(t, s.CreatePage(ctx, newPage("store-1", "accueil", now)))

	err := s.CreatePage(ctx, newPage("store-1", "accueil", now))
	assert.True(t, errors.Is(err, ErrDuplicateSlug), "got %v", err)

	// the same slug in another store is fine
	require.NoError(t, s.CreatePage(ctx, newPage("store-2", "accueil", now)))

	contact := newPage("store-1", "contact", now)
	require.NoError(t, s.CreatePage(ctx, contact))
	_, err = s.UpdatePage(ctx, contact.ID, PageUpdate{Slug: ptr("accueil")}, now)
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// the failed update left the page untouched
	got, err := s.GetPage(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "contact", got.Slug)
}

func TestSQLStore_PageBySlugAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := Now()
	p := newPage("store-1", "accueil", now)
	p.Sections = []PageSection{
		{ID: "features", Type: "features", Order: 1},
		{ID: "hero", Type: "hero", Order: 0, Settings: map[string]any{"title": "Bienvenue"}},
	}
	require.NoError(t, s.CreatePage(ctx, p))

	got, err := s.GetPageBySlug(ctx, "store-1", "accueil")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "hero", got.Sections[0].ID)
	assert.Equal(t, "Bienvenue", got.Sections[0].Settings["title"])
	assert.False(t, got.IsPublished)

	_, err = s.GetPageBySlug(ctx, "store-2", "accueil")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdatePage(ctx, p.ID, PageUpdate{
		Slug:        ptr("bienvenue"),
		IsPublished: ptr(true),
	}, now)
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)
	assert.Len(t, updated.Sections, 2)

	_, err = s.GetPageBySlug(ctx, "store-1", "accueil")
	assert.ErrorIs(t, err, ErrNotFound)
	bySlug, err := s.GetPageBySlug(ctx, "store-1", "bienvenue")
	require.NoError(t, err)
	assert.True(t, bySlug.IsPublished)

	pages, err := s.ListPages(ctx, "store-1", 0)
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	require.NoError(t, s.DeletePage(ctx, p.ID))
	assert.ErrorIs(t, s.DeletePage(ctx, p.ID), ErrNotFound)
}

func TestIsSlugViolation(t *testing.T) {
	assert.False(t, isSlugViolation(nil))
	assert.False(t, isSlugViolation(errors.New("disk full")))
	assert.True(t, isSlugViolation(errors.New("constraint failed: UNIQUE constraint failed: pages.store_id, pages.slug (2067)")))
	assert.False(t, isSlugViolation(errors.New("constraint failed: UNIQUE constraint failed: stores.id (1555)")))

	assert.True(t, isSlugViolation(fmt.Errorf("inserting: %w", &pgconn.PgError{Code: "23505", ConstraintName: slugConstraint})))
	assert.False(t, isSlugViolation(&pgconn.PgError{Code: "23505", ConstraintName: "products_pkey"}))
	assert.False(t, isSlugViolation(&pgconn.PgError{Code: "23503", ConstraintName: slugConstraint}))
}

func TestDuplicatePrimaryKeyIsNotSlugClash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := newStore("u1", "Boutique Amina", Now())
	require.NoError(t, s.CreateStore(ctx, st))

	again := newStore("u1", "Boutique Amina", Now())
	again.ID = st.ID
	err := s.CreateStore(ctx, again)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSlug)

	p := &Product{ID: "p1", StoreID: st.ID, Name: "Sac", CreatedAt: Now(), UpdatedAt: Now()}
	require.NoError(t, s.CreateProduct(ctx, p))
	err = s.CreateProduct(ctx, &Product{ID: "p1", StoreID: st.ID, Name: "Sac", CreatedAt: Now(), UpdatedAt: Now()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSlug)
}

func TestStatementBuilderPlaceholders(t *testing.T) {
	query, args, err := statementBuilder(DialectPostgres).
		Update(tablePages).SetMap(map[string]any{"slug": "accueil"}).
		Where(sq.Eq{"id": "p1", "updated_at": "2026-01-01T00:00:00.000Z"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "$1")
	assert.Contains(t, query, "$3")
	assert.NotContains(t, query, "?")
	assert.Len(t, args, 3)

	query, _, err = statementBuilder(DialectSQLite).Select("doc").From(tableStores).Where(sq.Eq{"id": "s1"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT doc FROM stores WHERE id = ?", query)
}

func TestUpdateStore_ConcurrentFieldsBothApplied(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for round := 0; round < 25; round++ {
		st := newStore("u1", "Boutique Amina", Now())
		require.NoError(t, s.CreateStore(ctx, st))

		name, desc := fmt.Sprintf("Boutique %d", round), fmt.Sprintf("Mode %d", round)
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, upd := range []StoreUpdate{{Name: &name}, {Description: &desc}} {
			wg.Add(1)
			go func(upd StoreUpdate) {
				defer wg.Done()
				_, err := s.UpdateStore(ctx, st.ID, "u1", upd, Now())
				errs <- err
			}(upd)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.GetStore(ctx, st.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, name, got.Name, "round %d", round)
		assert.Equal(t, desc, got.Description, "round %d", round)
	}
}

func TestUpdateProduct_ConcurrentFieldsBothApplied(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st := newStore("u1", "Boutique Amina", Now())
	require.NoError(t, s.CreateStore(ctx, st))

	for round := 0; round < 25; round++ {
		p := &Product{ID: fmt.Sprintf("p%d", round), StoreID: st.ID, Name: "Sac", Price: 10, CreatedAt: Now(), UpdatedAt: Now()}
		require.NoError(t, s.CreateProduct(ctx, p))

		price, category := float64(round), "accessoires"
		var wg sync.WaitGroup
		for _, upd := range []ProductUpdate{{Price: &price}, {Category: &category}} {
			wg.Add(1)
			go func(upd ProductUpdate) {
				defer wg.Done()
				_, err := s.UpdateProduct(ctx, p.ID, upd, Now())
				assert.NoError(t, err)
			}(upd)
		}
		wg.Wait()

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, price, got.Price, "round %d", round)
		assert.Equal(t, category, got.Category, "round %d", round)
	}
}

func TestUpdateStore_StaleGuardSeesDeactivation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st := newStore("u1", "Boutique Amina", Now())
	require.NoError(t, s.CreateStore(ctx, st))

	// a write guarded on the pre-deactivation version must miss
	guard := sq.Eq{"id": st.ID, "is_active": true, "updated_at": formatTime(st.UpdatedAt)}
	require.NoError(t, s.DeactivateStore(ctx, st.ID, "u1", Now()))

	err := s.writeDoc(ctx, tableStores, guard, st, map[string]any{"updated_at": formatTime(Now())})
	assert.ErrorIs(t, err, errStale)

	name := "x"
	_, err = s.UpdateStore(ctx, st.ID, "u1", StoreUpdate{Name: &name}, Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetryStale(t *testing.T) {
	calls := 0
	err := retryStale(func() error {
		calls++
		if calls < 3 {
			return errStale
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryStale(func() error { calls++; return errStale })
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxUpdateAttempts, calls)
}
