package mongo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

func TestExpenseDocRoundTrip(t *testing.T) {
	e := core.Expense{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Title:       "Rent",
		Amount:      core.Money{Cents: 91250},
		Category:    "Housing",
		Emotion:     "neutral",
		IsAvoidable: false,
		Date:        core.NewDate(2024, 3, 1),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	doc := docFromExpense(e)
	if doc.AmountCents != 91250 {
		t.Errorf("AmountCents = %d, want 91250", doc.AmountCents)
	}
	if !doc.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want midnight UTC", doc.Date)
	}

	back, err := doc.toExpense()
	if err != nil {
		t.Fatalf("toExpense: %v", err)
	}
	if back.ID != e.ID || back.UserID != e.UserID {
		t.Error("identity fields must survive the round trip")
	}
	if back.Amount.Cents != e.Amount.Cents {
		t.Errorf("Amount = %d, want %d", back.Amount.Cents, e.Amount.Cents)
	}
	if back.Date.String() != "2024-03-01" {
		t.Errorf("Date = %s, want 2024-03-01", back.Date)
	}
}

func TestExpenseDocRejectsMalformedIDs(t *testing.T) {
	doc := expenseDoc{ID: "not-a-uuid", UserID: uuid.New().String()}
	if _, err := doc.toExpense(); err == nil {
		t.Error("malformed _id should fail")
	}

	doc = expenseDoc{ID: uuid.New().String(), UserID: "not-a-uuid"}
	if _, err := doc.toExpense(); err == nil {
		t.Error("malformed user_id should fail")
	}
}

func TestExpenseMatch(t *testing.T) {
	owner := uuid.New()
	avoidable := true
	start := core.NewDate(2024, 3, 1)
	end := core.NewDate(2024, 3, 31)

	match := expenseMatch(owner, storage.ExpenseFilter{
		Category:  "Food",
		Avoidable: &avoidable,
		Search:    "cof(fee",
		StartDate: &start,
		EndDate:   &end,
	})

	if match["user_id"] != owner.String() {
		t.Errorf("user_id = %v", match["user_id"])
	}
	if match["category"] != "Food" {
		t.Errorf("category = %v", match["category"])
	}
	if match["is_avoidable"] != true {
		t.Errorf("is_avoidable = %v", match["is_avoidable"])
	}

	title, ok := match["title"].(bson.M)
	if !ok {
		t.Fatalf("title = %T, want bson.M", match["title"])
	}
	if title["$regex"] != `cof\(fee` {
		t.Errorf("$regex = %v, regex metacharacters must be escaped", title["$regex"])
	}
	if title["$options"] != "i" {
		t.Errorf("$options = %v, want i", title["$options"])
	}

	dateRange, ok := match["date"].(bson.M)
	if !ok {
		t.Fatalf("date = %T, want bson.M", match["date"])
	}
	if got := dateRange["$gte"].(time.Time); !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("$gte = %v", got)
	}
	// Inclusive end date becomes an exclusive bound on the next day.
	if got := dateRange["$lt"].(time.Time); !got.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("$lt = %v", got)
	}
}

func TestExpenseMatchEmptyFilter(t *testing.T) {
	owner := uuid.New()
	match := expenseMatch(owner, storage.ExpenseFilter{})

	if len(match) != 1 {
		t.Errorf("empty filter should only match on owner, got %v", match)
	}
	if _, present := match["date"]; present {
		t.Error("no date bounds requested, none should be set")
	}
}
