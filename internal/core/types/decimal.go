// Package types provides numeric helpers for reporting on integer ledger amounts.
// Stock quantities and money are stored as int64 (units and minor currency units);
// derived ratios use decimal arithmetic so reports never round through float64.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary value with full precision.
type Money = decimal.Decimal

// ReportScale is the number of fractional digits reported for ratios.
const ReportScale int32 = 2

// FromMinor converts an int64 amount in minor units to Money.
func FromMinor(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Percent returns part/whole*100 rounded to ReportScale. Zero whole yields zero.
func Percent(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), ReportScale)
}

// UnitAverage returns total/count rounded to ReportScale. Zero count yields zero.
func UnitAverage(total, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).DivRound(decimal.NewFromInt(count), ReportScale)
}

// MulChecked multiplies quantity by a unit amount, reporting overflow.
func MulChecked(qty, unit int64) (int64, bool) {
	if qty == 0 || unit == 0 {
		return 0, true
	}
	p := qty * unit
	if p/unit != qty {
		return 0, false
	}
	return p, true
}

// AddChecked adds two amounts, reporting overflow.
func AddChecked(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}
