package bpy331

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BlockSize is the number of lines one record occupies in a batch file,
// which is also the number of fields in a record.
const BlockSize = 29

// Record is one BPY331 payment record. Values are held clean: the double
// quotes and trailing whitespace of the file layout are removed by Parse
// and reapplied by Serialize, never carried inside field values.
type Record struct {
	InterfaceSource    string
	BatchRunID         string
	PostingRef         string
	AccountRef         string
	PayeeType          string
	PayeeName          string
	PayeeAddress       string
	ClaimRef           string
	ClaimantName       string
	ClaimantAddress    string
	Amount             decimal.Decimal
	PostingStartDate   string
	PostingEndDate     string
	PaymentMethod      string
	CreditorAccountRef string
	SortCode           string
	BankAccount        string
	BankAccountName    string
	BuildingSocietyNum string
	PostOfficeName     string
	PostOfficeAddress  string
	CollectionFlag     string
	DocumentNum        string
	DocumentType       string
	ReplacementFlag    string
	EffectiveDate      string
	BlankOne           string
	BlankTwo           string
	DocumentDate       string
}

// Defaults carries the static field values and the run date. It is built
// from an explicit time so two parses of the same file with the same
// Defaults produce identical records.
type Defaults struct {
	InterfaceSource string
	PayeeType       string
	ClaimantName    string
	ClaimantAddress string
	PaymentMethod   string
	CollectionFlag  string
	ReplacementFlag string
	PostingDate     string
}

// DefaultsAt returns the standard BPY331 defaults with date fields
// rendered as DD-MON-YYYY in upper case, e.g. 03-FEB-2026.
func DefaultsAt(now time.Time) Defaults {
	return Defaults{
		InterfaceSource: "BEN",
		PayeeType:       "CL",
		ClaimantName:    "Aggregated DHP UC Payment",
		ClaimantAddress: "Aggregated DHP UC Payment",
		PaymentMethod:   "BACS",
		CollectionFlag:  "N",
		ReplacementFlag: "N",
		PostingDate:     strings.ToUpper(now.Format("02-Jan-2006")),
	}
}

// NewRecord returns a record with every static field filled in and the
// variable fields left empty for the parser to set.
func NewRecord(defs Defaults) Record {
	return Record{
		InterfaceSource:  defs.InterfaceSource,
		PayeeType:        defs.PayeeType,
		ClaimantName:     defs.ClaimantName,
		ClaimantAddress:  defs.ClaimantAddress,
		PaymentMethod:    defs.PaymentMethod,
		CollectionFlag:   defs.CollectionFlag,
		ReplacementFlag:  defs.ReplacementFlag,
		PostingStartDate: defs.PostingDate,
		PostingEndDate:   defs.PostingDate,
		EffectiveDate:    defs.PostingDate,
	}
}

// fields returns the record's values in canonical file order. Amount is
// formatted with exactly two decimal places.
func (r Record) fields() [BlockSize]string {
	return [BlockSize]string{
		r.InterfaceSource,
		r.BatchRunID,
		r.PostingRef,
		r.AccountRef,
		r.PayeeType,
		r.PayeeName,
		r.PayeeAddress,
		r.ClaimRef,
		r.ClaimantName,
		r.ClaimantAddress,
		r.Amount.StringFixed(2),
		r.PostingStartDate,
		r.PostingEndDate,
		r.PaymentMethod,
		r.CreditorAccountRef,
		r.SortCode,
		r.BankAccount,
		r.BankAccountName,
		r.BuildingSocietyNum,
		r.PostOfficeName,
		r.PostOfficeAddress,
		r.CollectionFlag,
		r.DocumentNum,
		r.DocumentType,
		r.ReplacementFlag,
		r.EffectiveDate,
		r.BlankOne,
		r.BlankTwo,
		r.DocumentDate,
	}
}
