// Package ledger holds the pure cost-basis and PnL arithmetic plus the
// per-account serialization primitives. Nothing in here touches storage.
// All monetary values are shopspring/decimal.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

// DefaultEpsilon is the "fully sold" threshold carried over from the
// original books. It is configurable, not a law of the domain.
var DefaultEpsilon = decimal.New(1, -8) // 1e-8

// Calculator computes weighted-average cost basis and realized PnL.
// It is total for validated inputs: no method errors on arithmetic.
type Calculator struct {
	Epsilon decimal.Decimal
}

func NewCalculator(epsilon decimal.Decimal) Calculator {
	if epsilon.LessThanOrEqual(decimal.Zero) {
		epsilon = DefaultEpsilon
	}
	return Calculator{Epsilon: epsilon}
}

// BuyResult is the new aggregate state after a BUY fill.
type BuyResult struct {
	AvgEntryPrice     decimal.Decimal
	RemainingQuantity decimal.Decimal
	// Outlay is what the buy costs the account: price*qty + fee.
	Outlay decimal.Decimal
}

// SellResult is the outcome of a SELL fill.
type SellResult struct {
	RealizedPnL       decimal.Decimal // net of fee; a close realizes the full remaining cost basis
	RemainingQuantity decimal.Decimal
	Proceeds          decimal.Decimal // price*qty - fee, credited to the account
	Closed            bool
}

// FuturesResult is the settlement of a futures close or cancel.
type FuturesResult struct {
	GrossPnL decimal.Decimal
	NetPnL   decimal.Decimal
	// Returned is the cash credited back: margin + net PnL on close,
	// margin alone on cancel. A loss beyond margin makes it negative.
	Returned decimal.Decimal
}

// ValidateFill rejects non-positive price or quantity and negative fees
// before any calculator method runs.
func ValidateFill(price, qty, fee decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if fee.IsNegative() {
		return fmt.Errorf("%w: fee must not be negative", ErrValidation)
	}
	return nil
}

// ValidateAmount rejects non-positive cash amounts (deposit/withdraw/margin).
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

// ApplyBuy folds a BUY fill into the weighted average:
//
//	newAvg = (avg*remaining + price*qty) / (remaining + qty)
//
// Division by zero is impossible once qty > 0 is validated upstream.
func (c Calculator) ApplyBuy(avg, remaining, price, qty, fee decimal.Decimal) BuyResult {
	newQty := remaining.Add(qty)
	totalCost := avg.Mul(remaining).Add(price.Mul(qty))
	return BuyResult{
		AvgEntryPrice:     totalCost.Div(newQty),
		RemainingQuantity: newQty,
		Outlay:            price.Mul(qty).Add(fee),
	}
}

// ApplySell realizes PnL on the sold portion. The average entry price is
// untouched; only the remaining quantity shrinks. Selling more than held,
// beyond epsilon, is ErrOverSell and leaves nothing changed.
func (c Calculator) ApplySell(avg, remaining, price, qty, fee decimal.Decimal) (SellResult, error) {
	if qty.Sub(remaining).GreaterThan(c.Epsilon) {
		return SellResult{}, ErrOverSell
	}
	newQty := remaining.Sub(qty)
	if newQty.IsNegative() {
		newQty = decimal.Zero
	}
	closed := newQty.LessThanOrEqual(c.Epsilon)
	if closed {
		newQty = decimal.Zero
	}
	pnl := price.Sub(avg).Mul(qty).Sub(fee)
	if closed {
		// A close realizes the entire remaining cost basis, so epsilon dust
		// (or an epsilon oversell) never leaks out of the books.
		pnl = price.Mul(qty).Sub(fee).Sub(avg.Mul(remaining))
	}
	return SellResult{
		RealizedPnL:       pnl,
		RemainingQuantity: newQty,
		Proceeds:          price.Mul(qty).Sub(fee),
		Closed:            closed,
	}, nil
}

// CloseFutures settles a leveraged position:
//
//	gross = LONG ? (exit-entry)*qty : (entry-exit)*qty
//	net   = gross - fee
//	returned = margin + net
func (c Calculator) CloseFutures(direction string, entry, exit, qty, margin, fee decimal.Decimal) FuturesResult {
	var gross decimal.Decimal
	if direction == models.DirectionShort {
		gross = entry.Sub(exit).Mul(qty)
	} else {
		gross = exit.Sub(entry).Mul(qty)
	}
	net := gross.Sub(fee)
	return FuturesResult{
		GrossPnL: gross,
		NetPnL:   net,
		Returned: margin.Add(net),
	}
}

// CancelFutures returns the committed margin with no market exposure
// realized: zero PnL, zero fee.
func (c Calculator) CancelFutures(margin decimal.Decimal) FuturesResult {
	return FuturesResult{
		GrossPnL: decimal.Zero,
		NetPnL:   decimal.Zero,
		Returned: margin,
	}
}
