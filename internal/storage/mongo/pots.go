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

type potRepo struct {
	coll *mongo.Collection
}

type potDoc struct {
	ID                 string    `bson:"_id"`
	UserID             string    `bson:"user_id"`
	Title              string    `bson:"title"`
	TargetAmountCents  int64     `bson:"target_amount_cents"`
	CurrentAmountCents int64     `bson:"current_amount_cents"`
	TargetDate         time.Time `bson:"target_date"`
	Priority           string    `bson:"priority"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func (d potDoc) toPot() (core.Pot, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return core.Pot{}, fmt.Errorf("parse pot id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return core.Pot{}, fmt.Errorf("parse owner id: %w", err)
	}
	return core.Pot{
		ID:            id,
		UserID:        userID,
		Title:         d.Title,
		TargetAmount:  core.Money{Cents: d.TargetAmountCents},
		CurrentAmount: core.Money{Cents: d.CurrentAmountCents},
		TargetDate:    core.DateOf(d.TargetDate),
		Priority:      core.PotPriority(d.Priority),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (r *potRepo) Create(ctx context.Context, p core.Pot) (core.Pot, error) {
	if p.TargetAmount.Cents <= 0 {
		return core.Pot{}, core.ErrInvalidAmount
	}

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Priority == "" {
		p.Priority = core.PriorityMedium
	}

	doc := potDoc{
		ID:                 p.ID.String(),
		UserID:             p.UserID.String(),
		Title:              p.Title,
		TargetAmountCents:  p.TargetAmount.Cents,
		CurrentAmountCents: p.CurrentAmount.Cents,
		TargetDate:         p.TargetDate.StartOfDay(),
		Priority:           string(p.Priority),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return core.Pot{}, fmt.Errorf("insert pot: %w", err)
	}
	return p, nil
}

func (r *potRepo) Get(ctx context.Context, id uuid.UUID) (core.Pot, error) {
	var doc potDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Pot{}, fmt.Errorf("get pot: %w", err)
	}
	return doc.toPot()
}

func (r *potRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]core.Pot, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []potDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pots: %w", err)
	}

	pots := []core.Pot{}
	for _, doc := range docs {
		p, err := doc.toPot()
		if err != nil {
			return nil, err
		}
		pots = append(pots, p)
	}
	return pots, nil
}

func (r *potRepo) Update(ctx context.Context, id uuid.UUID, upd core.PotUpdate) (core.Pot, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.TargetAmount != nil {
		set["target_amount_cents"] = upd.TargetAmount.Cents
	}
	if upd.CurrentAmount != nil {
		set["current_amount_cents"] = upd.CurrentAmount.Cents
	}
	if upd.TargetDate != nil {
		set["target_date"] = upd.TargetDate.StartOfDay()
	}
	if upd.Priority != nil {
		set["priority"] = string(*upd.Priority)
	}

	var doc potDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Pot{}, fmt.Errorf("update pot: %w", err)
	}
	return doc.toPot()
}

func (r *potRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete pot: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	return nil
}
