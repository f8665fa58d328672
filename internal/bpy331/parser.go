package bpy331

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse turns the full line set of a batch file, header included, into
// records. Records occupy BlockSize-line blocks starting after the header.
// A trailing block shorter than BlockSize is an error rather than being
// dropped, so a truncated transfer never produces a short run.
func Parse(lines []string, defs Defaults) ([]Record, error) {
	if len(lines) == 0 {
		return nil, ParseError{Line: 0, Message: "empty file, missing header"}
	}

	body := lines[1:]
	if rem := len(body) % BlockSize; rem != 0 {
		return nil, ParseError{
			Line:    len(lines),
			Message: fmt.Sprintf("truncated record block, %d trailing lines (record is %d lines)", rem, BlockSize),
		}
	}

	records := make([]Record, 0, len(body)/BlockSize)
	for i := 0; i < len(body); i += BlockSize {
		rec, err := parseBlock(body[i:i+BlockSize], i+2, defs)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseBlock maps the block-relative line offsets of the BPY331 layout
// onto record fields. base is the 1-based file line number of the block's
// first line. Offset 17 carries the account holder's name and fills both
// the payee name and bank account name fields.
func parseBlock(block []string, base int, defs Defaults) (Record, error) {
	rec := NewRecord(defs)

	rec.BatchRunID = unquote(block[1])
	rec.PostingRef = unquote(block[2])
	rec.PayeeAddress = unquote(block[6])
	rec.ClaimRef = unquote(block[7])
	rec.SortCode = unquote(block[15])
	rec.BankAccount = unquote(block[16])
	rec.BankAccountName = unquote(block[17])
	rec.PayeeName = unquote(block[17])
	rec.BuildingSocietyNum = unquote(block[18])

	raw := unquote(block[10])
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return Record{}, ParseError{Line: base + 10, Message: fmt.Sprintf("invalid amount %q", raw)}
	}
	rec.Amount = amount

	return rec, nil
}

// unquote strips the layout's surrounding double quotes and any trailing
// whitespace after the closing quote.
func unquote(s string) string {
	s = strings.TrimRight(s, " \t")
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}
