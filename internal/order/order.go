package order

import "github.com/shopspring/decimal"

// Order is one line of a customer's order history. Timestamp is its key.
type Order struct {
	Phone       string          `json:"phone"`
	ProductName string          `json:"productName"`
	Timestamp   string          `json:"timestamp"`
	Quantity    int64           `json:"quantity"`
	ImageURL    string          `json:"imageUrl"`
	UnitLabel   string          `json:"unitLabel"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// Summary is the per-phone pending counter. PendingCount is never negative.
type Summary struct {
	Phone        string `json:"phone"`
	PendingCount int64  `json:"pendingCount"`
	Confirmed    bool   `json:"confirmed"`
}
