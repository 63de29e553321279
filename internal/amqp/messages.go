package amqp

import (
	"encoding/json"
	"time"
)

// PurchaseExportMessage asks the export worker to copy one purchase into the
// external ledger. It carries only the id and a version; the worker fetches
// the full record from the store so stale message bodies cannot overwrite
// newer data.
type PurchaseExportMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPurchaseExportMessage(id string, version int64) *PurchaseExportMessage {
	return &PurchaseExportMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *PurchaseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PurchaseExportMessageFromJSON(data []byte) (*PurchaseExportMessage, error) {
	var msg PurchaseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PurchaseDeleteMessage asks the export worker to remove a purchase's row
// from the external ledger. The purchase is already gone from the store by
// the time the worker sees this, so the message carries the fields the
// worker needs to locate the row.
type PurchaseDeleteMessage struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPurchaseDeleteMessage(id, date, description string, amountCents int64, category string) *PurchaseDeleteMessage {
	return &PurchaseDeleteMessage{
		ID:          id,
		Date:        date,
		Description: description,
		AmountCents: amountCents,
		Category:    category,
		Timestamp:   time.Now(),
	}
}

func (m *PurchaseDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PurchaseDeleteMessageFromJSON(data []byte) (*PurchaseDeleteMessage, error) {
	var msg PurchaseDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
