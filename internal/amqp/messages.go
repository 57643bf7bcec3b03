package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LedgerChangedMessage tells consumers that an account's ledger was written
// to. It carries no transaction data; readers refetch from the Ledger Store.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingAccount = errors.New("ledger changed message without account_id")

func NewLedgerChangedMessage(accountID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects one without
// an account.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID == "" {
		return nil, errMissingAccount
	}
	return &msg, nil
}
