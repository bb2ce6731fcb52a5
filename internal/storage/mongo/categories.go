package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expenseintel/internal/core"
)

type categoryRepo struct {
	coll *mongo.Collection
}

type categoryDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	Icon      string    `bson:"icon"`
	Color     string    `bson:"color"`
	IsDefault bool      `bson:"is_default"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d categoryDoc) toCategory() (core.Category, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse owner id: %w", err)
	}
	return core.Category{
		ID:        id,
		UserID:    userID,
		Name:      d.Name,
		Icon:      d.Icon,
		Color:     d.Color,
		IsDefault: d.IsDefault,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func (r *categoryRepo) Create(ctx context.Context, c core.Category) (core.Category, error) {
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Icon == "" {
		c.Icon = "Tag"
	}
	if c.Color == "" {
		c.Color = "#3b82f6"
	}

	doc := categoryDoc{
		ID:        c.ID.String(),
		UserID:    c.UserID.String(),
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Get(ctx context.Context, id uuid.UUID) (core.Category, error) {
	var doc categoryDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return doc.toCategory()
}

func (r *categoryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	categories := []core.Category{}
	for _, doc := range docs {
		c, err := doc.toCategory()
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, upd core.CategoryUpdate) (core.Category, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Icon != nil {
		set["icon"] = *upd.Icon
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}

	var doc categoryDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return doc.toCategory()
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}
