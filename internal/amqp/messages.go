package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

func (a EventAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEventMessage is a lightweight change notification. It carries only
// identifiers; consumers fetch the current record themselves, so a stale
// message never overwrites newer data.
type ExpenseEventMessage struct {
	Action    EventAction `json:"action"`
	ExpenseID uuid.UUID   `json:"expense_id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewExpenseEventMessage(action EventAction, expenseID, ownerID uuid.UUID) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		Action:    action,
		ExpenseID: expenseID,
		OwnerID:   ownerID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Action.IsValid() {
		return nil, fmt.Errorf("invalid event action: %q", msg.Action)
	}
	return &msg, nil
}
