// Package aggregate collapses resolved payment records into one record
// per account reference.
package aggregate

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jwhitehead/payagg/internal/bpy331"
)

// Sum partitions records by account reference and sums each group's
// amounts with decimal arithmetic. Groups are emitted in first-seen
// order so repeated runs over the same input produce identical output.
// A single-member group yields that member with its amount unchanged.
func Sum(records []bpy331.Record, log *zap.Logger) []bpy331.Record {
	groups := make(map[string][]bpy331.Record)
	var order []string
	for _, rec := range records {
		if _, ok := groups[rec.AccountRef]; !ok {
			order = append(order, rec.AccountRef)
		}
		groups[rec.AccountRef] = append(groups[rec.AccountRef], rec)
	}

	summed := make([]bpy331.Record, 0, len(order))
	for _, ref := range order {
		members := groups[ref]
		out := members[0]
		total := decimal.Zero
		for _, m := range members {
			total = total.Add(m.Amount)
			checkConsistent(out, m, log)
		}
		out.Amount = total
		summed = append(summed, out)
	}
	return summed
}

// checkConsistent reports group members whose payee-facing fields differ
// from the representative first member. Posting and claim references
// legitimately differ between payments to the same payee, so divergence
// is logged and the first member's values are kept.
func checkConsistent(first, member bpy331.Record, log *zap.Logger) {
	if member.PayeeAddress == first.PayeeAddress && member.BankAccountName == first.BankAccountName {
		return
	}
	log.Warn("grouped records disagree outside the amount field",
		zap.String("account_ref", first.AccountRef),
		zap.String("payee", first.PayeeName))
}
