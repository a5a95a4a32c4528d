package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a money-holding entity owned by a client. Number is the external identifier
// and never changes once the account is stored.
type Account struct {
	ID        string
	Number    string
	Balance   decimal.Decimal
	ClientID  string
	CreatedAt time.Time
}
