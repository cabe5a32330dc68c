/*
split.go - Revenue split and GST calculation

PURPOSE:
  Pure, stateless share math over (amount, partner split percentage).
  Everything here is a total function for amount >= 0 and 0 <= split <= 100;
  callers validate before invoking (see ledger.go). Behavior outside that
  range is unspecified.

BUSINESS RULE - GST:
  GST (15%, NZ rate) applies to the OPERATOR's retained share only, never
  to the gross sale amount and never to the partner share. This is a
  deliberate business-rule choice, easy to mis-port. Do not "fix" it.

IDENTITY:
  OperatorShare(a, s) + PartnerShare(a, s) == a for all valid inputs,
  within decimal division precision.

SEE ALSO:
  - aggregate.go: Applies these per machine for fleet totals
  - ledger.go: Validates inputs before these run
*/
package vending

import "github.com/shopspring/decimal"

// GSTRate is the fixed 15% GST rate applied to the operator's share.
var GSTRate = decimal.NewFromFloat(0.15)

var hundred = decimal.NewFromInt(100)

// OperatorShare returns the operator's cut: amount * (100 - split) / 100.
func OperatorShare(amount decimal.Decimal, split int) decimal.Decimal {
	return amount.Mul(hundred.Sub(decimal.NewFromInt(int64(split)))).Div(hundred)
}

// PartnerShare returns the partner's cut: amount * split / 100.
func PartnerShare(amount decimal.Decimal, split int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(split))).Div(hundred)
}

// GST returns the 15% tax on the given amount. Callers apply it to the
// operator share, not to the gross sale.
func GST(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(GSTRate)
}

// NetOperatorShare returns the operator share with GST deducted.
func NetOperatorShare(amount decimal.Decimal, split int) decimal.Decimal {
	op := OperatorShare(amount, split)
	return op.Sub(GST(op))
}

// Shares is the full breakdown of a single sale amount.
type Shares struct {
	OperatorShare    decimal.Decimal
	PartnerShare     decimal.Decimal
	GST              decimal.Decimal // on the operator share
	NetOperatorShare decimal.Decimal
}

// SaleShares computes the complete breakdown for one sale.
func SaleShares(amount decimal.Decimal, split int) Shares {
	op := OperatorShare(amount, split)
	tax := GST(op)
	return Shares{
		OperatorShare:    op,
		PartnerShare:     PartnerShare(amount, split),
		GST:              tax,
		NetOperatorShare: op.Sub(tax),
	}
}
