package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expenseintel/internal/core"
)

type userRepo struct {
	coll *mongo.Collection
}

type userDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashed_password"`
	FullName       string    `bson:"full_name,omitempty"`
	Currency       string    `bson:"currency"`
	IsActive       bool      `bson:"is_active"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d userDoc) toUser() (core.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	return core.User{
		ID:             id,
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		FullName:       d.FullName,
		Currency:       d.Currency,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

// emailFilter matches the whole address case-insensitively, mirroring the
// relational backend's NOCASE collation.
func emailFilter(email string) bson.M {
	return bson.M{"email": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(email) + "$",
		"$options": "i",
	}}
}

func (r *userRepo) Create(ctx context.Context, u core.User) (core.User, error) {
	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Currency == "" {
		u.Currency = "USD"
	}

	// The unique index on email is case-sensitive; check case-insensitively
	// first so Bob@x.com cannot register next to bob@x.com.
	err := r.coll.FindOne(ctx, emailFilter(u.Email)).Err()
	if err == nil {
		return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, fmt.Errorf("check email uniqueness: %w", err)
	}

	doc := userDoc{
		ID:             u.ID.String(),
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		FullName:       u.FullName,
		Currency:       u.Currency,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (core.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return doc.toUser()
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (core.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, emailFilter(email)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return doc.toUser()
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, upd core.UserUpdate) (core.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Email != nil {
		// Same case-insensitive uniqueness rule as Create, excluding the
		// record being changed.
		filter := emailFilter(*upd.Email)
		filter["_id"] = bson.M{"$ne": id.String()}
		err := r.coll.FindOne(ctx, filter).Err()
		if err == nil {
			return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return core.User{}, fmt.Errorf("check email uniqueness: %w", err)
		}
		set["email"] = *upd.Email
	}
	if upd.FullName != nil {
		set["full_name"] = *upd.FullName
	}
	if upd.Currency != nil {
		set["currency"] = *upd.Currency
	}
	if upd.HashedPassword != nil {
		set["hashed_password"] = *upd.HashedPassword
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
		}
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return doc.toUser()
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"hashed_password": hashed, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return nil
}
