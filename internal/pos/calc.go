package pos

import "github.com/shopspring/decimal"

var taxRate = decimal.New(10, -2)

// Breakdown is the server-side price computation of a transaction.
type Breakdown struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Compute sums qty x unit price over lines and adds 10% tax, rounded
// half-up on the aggregate only.
func Compute(lines []Line) Breakdown {
	var sub int64
	for _, l := range lines {
		sub += int64(l.Qty) * l.UnitPrice
	}
	tax := decimal.NewFromInt(sub).Mul(taxRate).Round(0).IntPart()
	return Breakdown{Subtotal: sub, Tax: tax, Total: sub + tax}
}
