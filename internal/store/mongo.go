// ABOUTME: MongoDB implementation of DocumentStore using the official mongo-driver
// ABOUTME: Partial updates are applied server-side with $set built from the changesets

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore implements DocumentStore on a MongoDB database
type MongoStore struct {
	client   *mongo.Client
	stores   *mongo.Collection
	products *mongo.Collection
	pages    *mongo.Collection
	logger   *slog.Logger
}

var _ DocumentStore = (*MongoStore)(nil)

// NewMongoStore connects to uri, pings the primary, and ensures indexes on dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	logger := slog.Default().With("component", "store", "backend", "mongo")

	// settings documents decode as maps so they render as JSON objects
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	db := client.Database(dbName)
	m := &MongoStore{
		client:   client,
		stores:   db.Collection(tableStores),
		products: db.Collection(tableProducts),
		pages:    db.Collection(tablePages),
		logger:   logger,
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	logger.Info("Mongo store initialized", "database", dbName)
	return m, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := m.pages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "store_id", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(slugConstraint),
	}); err != nil {
		return err
	}
	if _, err := m.stores.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := m.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// Ping checks that the primary is reachable
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.logger.Debug("closing Mongo store")
	return m.client.Disconnect(ctx)
}

// Stores

func (m *MongoStore) CreateStore(ctx context.Context, st *Store) error {
	st.Normalize()
	return m.insert(ctx, m.stores, st)
}

func (m *MongoStore) GetStore(ctx context.Context, id, userID string) (*Store, error) {
	return findOne[Store](ctx, m.stores, bson.M{"_id": id, "user_id": userID, "is_active": true})
}

func (m *MongoStore) GetActiveStore(ctx context.Context, id string) (*Store, error) {
	return findOne[Store](ctx, m.stores, bson.M{"_id": id, "is_active": true})
}

func (m *MongoStore) ListStores(ctx context.Context, userID string, limit int) ([]*Store, error) {
	return findMany[Store](ctx, m.stores, bson.M{"user_id": userID, "is_active": true}, limit)
}

func (m *MongoStore) UpdateStore(ctx context.Context, id, userID string, upd StoreUpdate, now time.Time) (*Store, error) {
	st, err := m.GetStore(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	updatedAt := NextUpdatedAt(st.UpdatedAt, now)
	set := upd.Fields()
	set["updated_at"] = updatedAt
	if err := m.set(ctx, m.stores, bson.M{"_id": id, "user_id": userID, "is_active": true}, set); err != nil {
		return nil, err
	}
	upd.Apply(st)
	st.UpdatedAt = updatedAt
	return st, nil
}

func (m *MongoStore) DeactivateStore(ctx context.Context, id, userID string, now time.Time) error {
	st, err := m.GetStore(ctx, id, userID)
	if err != nil {
		return err
	}
	return m.set(ctx, m.stores, bson.M{"_id": id, "user_id": userID, "is_active": true}, map[string]any{
		"is_active":  false,
		"updated_at": NextUpdatedAt(st.UpdatedAt, now),
	})
}

// Products

func (m *MongoStore) CreateProduct(ctx context.Context, p *Product) error {
	p.Normalize()
	return m.insert(ctx, m.products, p)
}

func (m *MongoStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	return findOne[Product](ctx, m.products, bson.M{"_id": id})
}

func (m *MongoStore) ListProducts(ctx context.Context, storeID string, limit int) ([]*Product, error) {
	return findMany[Product](ctx, m.products, bson.M{"store_id": storeID}, limit)
}

func (m *MongoStore) UpdateProduct(ctx context.Context, id string, upd ProductUpdate, now time.Time) (*Product, error) {
	p, err := m.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	updatedAt := NextUpdatedAt(p.UpdatedAt, now)
	set := upd.Fields()
	set["updated_at"] = updatedAt
	if err := m.set(ctx, m.products, bson.M{"_id": id}, set); err != nil {
		return nil, err
	}
	upd.Apply(p)
	p.UpdatedAt = updatedAt
	return p, nil
}

func (m *MongoStore) DeleteProduct(ctx context.Context, id string) error {
	return m.deleteByID(ctx, m.products, id)
}

// Pages

func (m *MongoStore) CreatePage(ctx context.Context, p *Page) error {
	p.Normalize()
	return m.insert(ctx, m.pages, p)
}

func (m *MongoStore) GetPage(ctx context.Context, id string) (*Page, error) {
	return findOne[Page](ctx, m.pages, bson.M{"_id": id})
}

func (m *MongoStore) GetPageBySlug(ctx context.Context, storeID, slug string) (*Page, error) {
	return findOne[Page](ctx, m.pages, bson.M{"store_id": storeID, "slug": slug})
}

func (m *MongoStore) ListPages(ctx context.Context, storeID string, limit int) ([]*Page, error) {
	return findMany[Page](ctx, m.pages, bson.M{"store_id": storeID}, limit)
}

func (m *MongoStore) UpdatePage(ctx context.Context, id string, upd PageUpdate, now time.Time) (*Page, error) {
	p, err := m.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	updatedAt := NextUpdatedAt(p.UpdatedAt, now)
	set := upd.Fields()
	set["updated_at"] = updatedAt
	if err := m.set(ctx, m.pages, bson.M{"_id": id}, set); err != nil {
		return nil, err
	}
	upd.Apply(p)
	p.UpdatedAt = updatedAt
	return p, nil
}

func (m *MongoStore) DeletePage(ctx context.Context, id string) error {
	return m.deleteByID(ctx, m.pages, id)
}

// helpers

func (m *MongoStore) insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if isSlugDuplicate(coll, err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting into %s: %w", coll.Name(), err)
	}
	return nil
}

func (m *MongoStore) set(ctx context.Context, coll *mongo.Collection, filter bson.M, fields map[string]any) error {
	result, err := coll.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		if isSlugDuplicate(coll, err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("updating %s: %w", coll.Name(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// isSlugDuplicate reports a duplicate key on the pages slug index only.
func isSlugDuplicate(coll *mongo.Collection, err error) bool {
	return coll.Name() == tablePages && mongo.IsDuplicateKeyError(err) &&
		strings.Contains(err.Error(), slugConstraint)
}

func (m *MongoStore) deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", coll.Name(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findOne[T any, PT interface {
	*T
	normalizer
}](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	doc := new(T)
	if err := coll.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying %s: %w", coll.Name(), err)
	}
	PT(doc).Normalize()
	return doc, nil
}

func findMany[T any, PT interface {
	*T
	normalizer
}](ctx context.Context, coll *mongo.Collection, filter bson.M, limit int) ([]*T, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(clampLimit(limit)))

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", coll.Name(), err)
	}
	out := []*T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", coll.Name(), err)
	}
	for _, doc := range out {
		PT(doc).Normalize()
	}
	return out, nil
}
