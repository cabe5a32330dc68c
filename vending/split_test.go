package vending_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vending-ledger/vending"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func assertMoneyEqual(t *testing.T, expected float64, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	f, _ := actual.Float64()
	assert.InDelta(t, expected, f, 1e-9, msgAndArgs...)
}

// =============================================================================
// SHARE-SUM IDENTITY
// =============================================================================

func TestShares_SumToAmount(t *testing.T) {
	// GIVEN: Any amount >= 0 and any split 0..100
	// WHEN: Computing operator and partner shares
	// THEN: The two shares sum back to the amount

	amounts := []float64{0, 0.01, 1, 33.33, 100, 2450.30, 99999.99}
	splits := []int{0, 1, 15, 33, 50, 60, 70, 99, 100}

	for _, amount := range amounts {
		for _, split := range splits {
			a := money(amount)
			sum := vending.OperatorShare(a, split).Add(vending.PartnerShare(a, split))
			assertMoneyEqual(t, amount, sum, "amount=%v split=%v", amount, split)
		}
	}
}

func TestShares_BoundarySplits(t *testing.T) {
	// Split 0: operator keeps everything. Split 100: partner takes everything.

	a := money(500)

	assertMoneyEqual(t, 500, vending.OperatorShare(a, 0))
	assertMoneyEqual(t, 0, vending.PartnerShare(a, 0))

	assertMoneyEqual(t, 0, vending.OperatorShare(a, 100))
	assertMoneyEqual(t, 500, vending.PartnerShare(a, 100))
}

// =============================================================================
// GST
// =============================================================================

func TestGST_FifteenPercent(t *testing.T) {
	for _, amount := range []float64{0, 1, 30, 100, 1234.56} {
		assertMoneyEqual(t, amount*0.15, vending.GST(money(amount)), "amount=%v", amount)
	}
}

func TestNetOperatorShare_IsOperatorShareMinusGST(t *testing.T) {
	// GIVEN: A sale amount and a split
	// THEN: Net operator share equals operator share minus GST on that share

	a := money(800)
	split := 40

	op := vending.OperatorShare(a, split)
	expected := op.Sub(vending.GST(op))

	assert.True(t, vending.NetOperatorShare(a, split).Equal(expected))
}

func TestGST_AppliesToOperatorShareOnly(t *testing.T) {
	// GST is computed on the operator's retained share, never on the gross
	// sale amount and never on the partner share. With amount=100 and
	// split=70 that is 15% of 30, not 15% of 100 or 15% of 70.

	shares := vending.SaleShares(money(100), 70)

	assertMoneyEqual(t, 4.50, shares.GST)
	assert.False(t, shares.GST.Equal(money(15)), "GST must not be taken on the gross amount")
	assert.False(t, shares.GST.Equal(money(10.5)), "GST must not be taken on the partner share")
}

// =============================================================================
// END-TO-END BREAKDOWN
// =============================================================================

func TestSaleShares_Split70Amount100(t *testing.T) {
	// GIVEN: The canonical 70% partner split and a $100 sale
	// THEN: operator 30.00, partner 70.00, GST 4.50, net 25.50

	shares := vending.SaleShares(money(100), 70)

	assertMoneyEqual(t, 30.00, shares.OperatorShare)
	assertMoneyEqual(t, 70.00, shares.PartnerShare)
	assertMoneyEqual(t, 4.50, shares.GST)
	assertMoneyEqual(t, 25.50, shares.NetOperatorShare)
}

func TestSaleShares_ZeroAmount(t *testing.T) {
	shares := vending.SaleShares(decimal.Zero, 70)

	require.True(t, shares.OperatorShare.IsZero())
	require.True(t, shares.PartnerShare.IsZero())
	require.True(t, shares.GST.IsZero())
	require.True(t, shares.NetOperatorShare.IsZero())
}
