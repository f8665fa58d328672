// Package testutil generates synthetic BPY331 batch files for tests.
package testutil

import (
	"fmt"
	"os"
	"strings"
)

const Header = `"BPY331 DHP UC PAYMENT BATCH"`

// Payment holds the variable fields of one record block. Everything else
// in the block is filler the parser ignores.
type Payment struct {
	BatchRunID         string
	PostingRef         string
	PayeeName          string
	PayeeAddress       string
	ClaimRef           string
	Amount             string
	SortCode           string
	BankAccount        string
	BuildingSocietyNum string
}

// GenerateBatch renders payments in the batch file layout: one header
// line, then one 29-line block per payment with each value quoted.
func GenerateBatch(payments ...Payment) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')

	for _, p := range payments {
		block := make([]string, 29)
		for i := range block {
			block[i] = `""`
		}
		block[0] = `"BEN"`
		block[1] = quote(p.BatchRunID)
		block[2] = quote(p.PostingRef)
		block[6] = quote(p.PayeeAddress)
		block[7] = quote(p.ClaimRef)
		block[10] = quote(p.Amount)
		block[15] = quote(p.SortCode)
		block[16] = quote(p.BankAccount)
		block[17] = quote(p.PayeeName)
		block[18] = quote(p.BuildingSocietyNum)

		for _, line := range block {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// WriteBatch writes a generated batch file to path.
func WriteBatch(path string, payments ...Payment) error {
	return os.WriteFile(path, []byte(GenerateBatch(payments...)), 0o644)
}

// SamplePayment returns a payment for payee n with the given amount.
// The identity fields are deterministic per n so two payments with the
// same n resolve to the same payee.
func SamplePayment(n int, amount string) Payment {
	return Payment{
		BatchRunID:         "4221",
		PostingRef:         fmt.Sprintf("POST%04d", n),
		PayeeName:          fmt.Sprintf("PAYEE %d", n),
		PayeeAddress:       fmt.Sprintf("%d HIGH STREET", n),
		ClaimRef:           fmt.Sprintf("CLAIM%04d", n),
		Amount:             amount,
		SortCode:           "401122",
		BankAccount:        fmt.Sprintf("%08d", 10000000+n),
		BuildingSocietyNum: "",
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
