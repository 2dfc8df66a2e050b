package events

import (
	"encoding/json"
	"time"
)

// Routing keys of published messages.
const (
	KindCreated = "expense.created"
	KindDeleted = "expense.deleted"
)

// ExpenseMessage is the JSON body published for every expense change.
type ExpenseMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON encodes the message.
func (m ExpenseMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseMessageFromJSON decodes a message body.
func ExpenseMessageFromJSON(data []byte) (ExpenseMessage, error) {
	var msg ExpenseMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
