package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewExpenseEventMessage(t *testing.T) {
	expenseID := uuid.New()
	ownerID := uuid.New()

	msg := NewExpenseEventMessage(ActionCreated, expenseID, ownerID)

	if msg.Action != ActionCreated {
		t.Errorf("Action = %v, want %v", msg.Action, ActionCreated)
	}
	if msg.ExpenseID != expenseID {
		t.Errorf("ExpenseID = %v, want %v", msg.ExpenseID, expenseID)
	}
	if msg.OwnerID != ownerID {
		t.Errorf("OwnerID = %v, want %v", msg.OwnerID, ownerID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestExpenseEventMessage_JSON(t *testing.T) {
	msg := &ExpenseEventMessage{
		Action:    ActionUpdated,
		ExpenseID: uuid.New(),
		OwnerID:   uuid.New(),
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseEventMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseEventMessageFromJSON() error = %v", err)
	}

	if parsed.Action != msg.Action {
		t.Errorf("Parsed Action = %v, want %v", parsed.Action, msg.Action)
	}
	if parsed.ExpenseID != msg.ExpenseID {
		t.Errorf("Parsed ExpenseID = %v, want %v", parsed.ExpenseID, msg.ExpenseID)
	}
	if parsed.OwnerID != msg.OwnerID {
		t.Errorf("Parsed OwnerID = %v, want %v", parsed.OwnerID, msg.OwnerID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseEventMessage_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"bad uuid", `{"action":"created","expense_id":"nope","owner_id":"nope"}`},
		{"unknown action", `{"action":"archived","expense_id":"` + uuid.NewString() + `","owner_id":"` + uuid.NewString() + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExpenseEventMessageFromJSON([]byte(tt.data)); err == nil {
				t.Error("ExpenseEventMessageFromJSON() should fail")
			}
		})
	}
}

func TestEventAction_IsValid(t *testing.T) {
	valid := []EventAction{ActionCreated, ActionUpdated, ActionDeleted}
	for _, a := range valid {
		if !a.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", a)
		}
	}
	if EventAction("archived").IsValid() {
		t.Error(`IsValid("archived") = true, want false`)
	}
}
