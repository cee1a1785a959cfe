package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

// Collection is a document-backed repository.Repository. Documents are
// addressed by _id and, when the collection is vendor scoped, vendor_id.
type Collection[T any] struct {
	coll   *mongo.Collection
	name   string
	scoped bool
	keyOf  func(T) repository.Key
	sort   bson.D
}

func newCollection[T any](db *mongo.Database, name string, scoped bool, keyOf func(T) repository.Key) *Collection[T] {
	return &Collection[T]{
		coll:   db.Collection(name),
		name:   name,
		scoped: scoped,
		keyOf:  keyOf,
		sort:   bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	}
}

func (c *Collection[T]) filter(key repository.Key) bson.M {
	f := bson.M{"_id": key.ID}
	if c.scoped {
		f["vendor_id"] = key.VendorID
	}
	return f
}

func (c *Collection[T]) Create(ctx context.Context, v T) error {
	if _, err := c.coll.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, key repository.Key) (T, error) {
	var v T
	err := c.coll.FindOne(ctx, c.filter(key)).Decode(&v)
	if err != nil {
		var zero T
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, repository.ErrNotFound
		}
		return zero, fmt.Errorf("failed to get from %s: %w", c.name, err)
	}
	return v, nil
}

func (c *Collection[T]) GetAll(ctx context.Context, vendorID string) ([]T, error) {
	f := bson.M{}
	if c.scoped && vendorID != "" {
		f["vendor_id"] = vendorID
	}
	return c.find(ctx, f)
}

func (c *Collection[T]) find(ctx context.Context, f bson.M) ([]T, error) {
	cursor, err := c.coll.Find(ctx, f, options.Find().SetSort(c.sort))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	return out, nil
}

func (c *Collection[T]) Update(ctx context.Context, v T) error {
	res, err := c.coll.ReplaceOne(ctx, c.filter(c.keyOf(v)), v)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, key repository.Key) error {
	res, err := c.coll.DeleteOne(ctx, c.filter(key))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
