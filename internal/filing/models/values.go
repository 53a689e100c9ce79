package models

import (
	"encoding/json"
	"math"
)

// Amount is a monetary value that may be empty. The zero value is empty.
type Amount struct {
	value   float64
	present bool
}

// AmountOf returns a present amount.
func AmountOf(v float64) Amount {
	return Amount{value: v, present: true}
}

// EmptyAmount returns an amount with no value.
func EmptyAmount() Amount {
	return Amount{}
}

// Present reports whether the amount holds a number.
func (a Amount) Present() bool { return a.present }

// Value returns the number, or 0 when empty.
func (a Amount) Value() float64 {
	if !a.present {
		return 0
	}
	return a.value
}

// Normalized returns the value rounded to two decimals, treating empty as 0.
func (a Amount) Normalized() float64 {
	return math.Round(a.Value()*100) / 100
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = AmountOf(v)
	return nil
}

// Flag is a yes/no answer that may not have been given yet.
type Flag struct {
	value    bool
	answered bool
}

// FlagOf returns an answered flag.
func FlagOf(v bool) Flag {
	return Flag{value: v, answered: true}
}

// Answered reports whether the question was answered.
func (f Flag) Answered() bool { return f.answered }

// True reports whether the flag was answered yes.
func (f Flag) True() bool { return f.answered && f.value }

func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.answered {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Flag{}
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlagOf(v)
	return nil
}

// CreditType identifies one of the independent tax-credit toggles.
type CreditType string

const (
	CreditDonations   CreditType = "donations"
	CreditPensionFund CreditType = "pensionFund"
	CreditTuitionFees CreditType = "tuitionFees"
)

// CreditTypes lists credit types in display order.
var CreditTypes = []CreditType{CreditDonations, CreditPensionFund, CreditTuitionFees}

// ParseCreditType validates a credit type from outside the process.
func ParseCreditType(s string) (CreditType, bool) {
	for _, ct := range CreditTypes {
		if string(ct) == s {
			return ct, true
		}
	}
	return "", false
}

// CreditEntry has a fixed shape; Amount only counts when Enabled.
type CreditEntry struct {
	Enabled bool   `json:"enabled"`
	Amount  Amount `json:"amount"`
}

// Effective returns the amount contributed to the credit total.
func (c CreditEntry) Effective() float64 {
	if !c.Enabled {
		return 0
	}
	return c.Amount.Value()
}

// Credits holds one entry per credit type. Missing types read as disabled.
type Credits map[CreditType]CreditEntry

// Entry returns the entry for ct, disabled and empty when unset.
func (c Credits) Entry(ct CreditType) CreditEntry {
	return c[ct]
}

// Total sums the enabled amounts; disabled or empty entries count as zero.
func (c Credits) Total() float64 {
	var total float64
	for _, ct := range CreditTypes {
		total += c[ct].Effective()
	}
	return math.Round(total*100) / 100
}

// Clone returns a copy holding every credit type.
func (c Credits) Clone() Credits {
	out := make(Credits, len(CreditTypes))
	for _, ct := range CreditTypes {
		out[ct] = c[ct]
	}
	return out
}
