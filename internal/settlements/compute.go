package settlements

import (
	"github.com/shopspring/decimal"

	"github.com/buildbazaar/buildbazaar-backend/pkg/db/models"
)

// Totals holds the paise amounts for one batch. All intermediate math runs in
// decimal and rounds once per line, so totals never drift with float error.
type Totals struct {
	OrderCount       int
	GrossPaise       int64
	PlatformFeePaise int64
	TDSPaise         int64
	AdjustmentsPaise int64
	NetPaise         int64
}

// computeTotals derives the payable amounts for a set of member orders. Gross
// counts each order's total net of any refund granted through a dispute; the
// platform fee applies to gross, and TDS applies to what remains after the
// fee.
func computeTotals(orders []models.Order, feeRate, tdsRate decimal.Decimal, adjustmentsPaise int64) Totals {
	var gross int64
	for _, order := range orders {
		amount := order.TotalPaise
		if order.RefundPaise != nil {
			amount -= *order.RefundPaise
		}
		if amount < 0 {
			amount = 0
		}
		gross += amount
	}

	grossDec := decimal.NewFromInt(gross)
	fee := grossDec.Mul(feeRate).Round(0).IntPart()
	tds := grossDec.Sub(decimal.NewFromInt(fee)).Mul(tdsRate).Round(0).IntPart()
	net := gross - fee - tds - adjustmentsPaise

	return Totals{
		OrderCount:       len(orders),
		GrossPaise:       gross,
		PlatformFeePaise: fee,
		TDSPaise:         tds,
		AdjustmentsPaise: adjustmentsPaise,
		NetPaise:         net,
	}
}
