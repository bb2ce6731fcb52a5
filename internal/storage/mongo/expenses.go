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
	"expenseintel/internal/storage"
)

type expenseRepo struct {
	coll *mongo.Collection
}

// expenseDoc is the persisted shape. Amounts are integer cents and dates are
// midnight-UTC timestamps, so sums and range filters behave exactly like the
// relational backend's.
type expenseDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	AmountCents int64     `bson:"amount_cents"`
	Category    string    `bson:"category"`
	Emotion     string    `bson:"emotion,omitempty"`
	IsAvoidable bool      `bson:"is_avoidable"`
	Date        time.Time `bson:"date"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

var sortKeys = map[storage.SortField]string{
	storage.SortByDate:      "date",
	storage.SortByAmount:    "amount_cents",
	storage.SortByTitle:     "title",
	storage.SortByCreatedAt: "created_at",
}

func docFromExpense(e core.Expense) expenseDoc {
	return expenseDoc{
		ID:          e.ID.String(),
		UserID:      e.UserID.String(),
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Emotion:     e.Emotion,
		IsAvoidable: e.IsAvoidable,
		Date:        e.Date.StartOfDay(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d expenseDoc) toExpense() (core.Expense, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse owner id: %w", err)
	}
	return core.Expense{
		ID:          id,
		UserID:      userID,
		Title:       d.Title,
		Amount:      core.Money{Cents: d.AmountCents},
		Category:    d.Category,
		Emotion:     d.Emotion,
		IsAvoidable: d.IsAvoidable,
		Date:        core.DateOf(d.Date),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (r *expenseRepo) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}

	now := time.Now().UTC()
	e.ID = uuid.New()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, docFromExpense(e)); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) Get(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	var doc expenseDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return doc.toExpense()
}

func (r *expenseRepo) Update(ctx context.Context, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error) {
	if upd.Amount != nil && upd.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Amount != nil {
		set["amount_cents"] = upd.Amount.Cents
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Emotion != nil {
		set["emotion"] = *upd.Emotion
	}
	if upd.IsAvoidable != nil {
		set["is_avoidable"] = *upd.IsAvoidable
	}
	if upd.Date != nil {
		set["date"] = upd.Date.StartOfDay()
	}

	var doc expenseDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return doc.toExpense()
}

func (r *expenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// expenseMatch builds the match document once; the page stage and the totals
// stage of the facet run against the same filtered set by construction.
func expenseMatch(ownerID uuid.UUID, f storage.ExpenseFilter) bson.M {
	match := bson.M{"user_id": ownerID.String()}

	if f.Category != "" {
		match["category"] = f.Category
	}
	if f.Avoidable != nil {
		match["is_avoidable"] = *f.Avoidable
	}
	if f.Search != "" {
		match["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	dateRange := bson.M{}
	if f.StartDate != nil {
		dateRange["$gte"] = f.StartDate.StartOfDay()
	}
	if f.EndDate != nil {
		dateRange["$lt"] = f.EndDate.EndOfDayExclusive()
	}
	if len(dateRange) > 0 {
		match["date"] = dateRange
	}
	return match
}

func (r *expenseRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, f storage.ExpenseFilter) (core.ExpenseList, error) {
	f = f.Normalize()

	// Page and full-set aggregates come back in a single facet round trip.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: expenseMatch(ownerID, f)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"page": bson.A{
				bson.M{"$sort": bson.D{
					{Key: sortKeys[f.SortBy], Value: int(f.SortOrder)},
					{Key: "_id", Value: 1},
				}},
				bson.M{"$skip": f.Skip},
				bson.M{"$limit": f.Limit},
			},
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":          nil,
					"total_count":  bson.M{"$sum": 1},
					"total_amount": bson.M{"$sum": "$amount_cents"},
					"total_avoidable_amount": bson.M{"$sum": bson.M{
						"$cond": bson.A{"$is_avoidable", "$amount_cents", 0},
					}},
				}},
			},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return core.ExpenseList{}, fmt.Errorf("aggregate expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Page   []expenseDoc `bson:"page"`
		Totals []struct {
			TotalCount           int64 `bson:"total_count"`
			TotalAmount          int64 `bson:"total_amount"`
			TotalAvoidableAmount int64 `bson:"total_avoidable_amount"`
		} `bson:"totals"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return core.ExpenseList{}, fmt.Errorf("decode expense facet: %w", err)
	}

	list := core.ExpenseList{Items: []core.Expense{}}
	if len(results) == 0 {
		return list, nil
	}
	for _, doc := range results[0].Page {
		e, err := doc.toExpense()
		if err != nil {
			return core.ExpenseList{}, err
		}
		list.Items = append(list.Items, e)
	}
	if len(results[0].Totals) > 0 {
		t := results[0].Totals[0]
		list.TotalCount = t.TotalCount
		list.TotalAmount = core.Money{Cents: t.TotalAmount}
		list.TotalAvoidableAmount = core.Money{Cents: t.TotalAvoidableAmount}
	}
	return list, nil
}

func (r *expenseRepo) MonthlySummary(ctx context.Context, ownerID uuid.UUID, year, month int) (core.MonthlySummary, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	monthMatch := bson.M{"date": bson.M{"$gte": start.StartOfDay(), "$lt": end.StartOfDay()}}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": ownerID.String()}}},
		bson.D{{Key: "$facet", Value: bson.M{
			"monthly": bson.A{
				bson.M{"$match": monthMatch},
				bson.M{"$group": bson.M{
					"_id":          nil,
					"total_amount": bson.M{"$sum": "$amount_cents"},
					"count":        bson.M{"$sum": 1},
				}},
			},
			"by_category": bson.A{
				bson.M{"$match": monthMatch},
				bson.M{"$group": bson.M{
					"_id":   "$category",
					"total": bson.M{"$sum": "$amount_cents"},
				}},
			},
			"lifetime": bson.A{
				bson.M{"$group": bson.M{
					"_id":   nil,
					"total": bson.M{"$sum": "$amount_cents"},
				}},
			},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("aggregate monthly summary: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Monthly []struct {
			TotalAmount int64 `bson:"total_amount"`
			Count       int64 `bson:"count"`
		} `bson:"monthly"`
		ByCategory []struct {
			Category string `bson:"_id"`
			Total    int64  `bson:"total"`
		} `bson:"by_category"`
		Lifetime []struct {
			Total int64 `bson:"total"`
		} `bson:"lifetime"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("decode summary facet: %w", err)
	}

	summary := core.MonthlySummary{CategoryBreakdown: map[string]core.Money{}}
	if len(results) == 0 {
		return summary, nil
	}
	if len(results[0].Monthly) > 0 {
		summary.TotalAmount = core.Money{Cents: results[0].Monthly[0].TotalAmount}
		summary.Count = results[0].Monthly[0].Count
	}
	for _, row := range results[0].ByCategory {
		summary.CategoryBreakdown[row.Category] = core.Money{Cents: row.Total}
	}
	if len(results[0].Lifetime) > 0 {
		summary.LifetimeTotal = core.Money{Cents: results[0].Lifetime[0].Total}
	}
	return summary, nil
}
