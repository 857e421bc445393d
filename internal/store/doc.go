// Package store persists stores, products and pages for easyshop-api.
//
// Three backends implement DocumentStore:
//
//   - MongoStore speaks to MongoDB, the production database.
//   - SQLStore on modernc.org/sqlite needs no server and backs local runs and tests.
//   - SQLStore on pgx/v5 targets Postgres.
//
// Open picks one from the database URL. The SQL backends keep each entity as a
// JSON document next to the columns they filter and sort on.
//
// Updates are partial: StoreUpdate, ProductUpdate and PageUpdate carry pointer
// fields and only non-nil fields change. Every update moves updated_at strictly
// forward (see NextUpdatedAt). Timestamps are UTC at millisecond precision.
//
// Deleting a store is soft (is_active=false) and soft-deleted stores are never
// returned. Products and pages are deleted outright.
package store
