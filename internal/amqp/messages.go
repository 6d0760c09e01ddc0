package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"ledger/internal/core"
)

// Action names the lifecycle step a TransactionEvent reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) Valid() bool {
	return a == ActionCreated || a == ActionUpdated || a == ActionDeleted
}

// TransactionEvent is published after every successful write. Deleted events
// carry only the id.
type TransactionEvent struct {
	Action      Action            `json:"action"`
	ID          int64             `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewTransactionEvent(action Action, t core.Transaction) TransactionEvent {
	ev := TransactionEvent{
		Action:    action,
		ID:        t.ID,
		Timestamp: time.Now().UTC(),
	}
	if action != ActionDeleted {
		ev.Transaction = &t
	}
	return ev
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, err
	}
	if !ev.Action.Valid() {
		return TransactionEvent{}, fmt.Errorf("unknown event action %q", ev.Action)
	}
	if ev.ID <= 0 {
		return TransactionEvent{}, fmt.Errorf("event without transaction id")
	}
	if ev.Action != ActionDeleted && ev.Transaction == nil {
		return TransactionEvent{}, fmt.Errorf("%s event without transaction", ev.Action)
	}
	return ev, nil
}
