package domain

import "time"

// Receipt is the snapshot of a cart taken by a mock checkout.
type Receipt struct {
	OrderID   string     `json:"order_id"`
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Count     int        `json:"count"`
	Total     float64    `json:"total"`
	PlacedAt  time.Time  `json:"placed_at"`
}
