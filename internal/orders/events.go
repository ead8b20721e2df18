package orders

import (
	"encoding/json"
	"time"
)

const EventOrderPlaced = "OrderPlaced"

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	TraceID      string          `json:"trace_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID     int64  `json:"order_id"`
	OrderCode   string `json:"order_code"`
	MemberID    int64  `json:"member_id"`
	TotalAmount int    `json:"total_amount"`
}
