package clients

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a registered bank customer.
type Client struct {
	ID          string
	Name        string
	DateOfBirth time.Time
	Gender      string
	Income      decimal.Decimal
	CreatedAt   time.Time
}
