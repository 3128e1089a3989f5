package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent is the compact message published after every successful
// ledger mutation. Consumers fetch the full transaction from the store;
// the event carries only identity.
type LedgerEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(action, transactionID, userID string) *LedgerEvent {
	return &LedgerEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

func (e *LedgerEvent) Validate() error {
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.TransactionID == "" {
		return fmt.Errorf("missing transaction id")
	}
	return nil
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
