package usecase

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
)

// VerificationResult is the structured outcome of matching a slip against
// a pending transaction. A mismatch is a soft outcome: the transaction
// stays pending so the user can retry with a corrected slip.
type VerificationResult struct {
	Verified     bool   `json:"verified"`
	DateValid    bool   `json:"dateValid"`
	AmountValid  bool   `json:"amountValid"`
	NameMatches  bool   `json:"nameMatches"`
	PhoneMatches bool   `json:"phoneMatches"`
	Reason       string `json:"reason,omitempty"`
}

// Slip OCR amounts are noisy decimals; anything within one satang passes.
var amountTolerance = decimal.NewFromFloat(0.01)

const slipWindow = 24 * time.Hour

// matchSlip scores extracted slip data against the transaction it claims
// to settle. All four checks must pass. The heuristics are deliberately
// forgiving (substring names, last-4-digit phones) because exact matching
// against OCR output rejects too many genuine payments.
func matchSlip(t *model.Transaction, slip *adapter.SlipData) VerificationResult {
	r := VerificationResult{
		DateValid:    dateWithinWindow(t.CreatedAt, slip.Date),
		AmountValid:  amountMatches(t.Amount, slip.Amount),
		NameMatches:  namesMatch(t.RecipientName, slip.ReceiverName),
		PhoneMatches: phoneMatches(t.RecipientMobile, slip.ReceiverProxy),
	}
	r.Verified = r.DateValid && r.AmountValid && r.NameMatches && r.PhoneMatches
	if r.Verified {
		return r
	}

	var reasons []string
	if !r.DateValid {
		reasons = append(reasons, "วันที่ในสลิปไม่อยู่ในช่วงเวลาที่กำหนด")
	}
	if !r.AmountValid {
		reasons = append(reasons, "ยอดเงินในสลิปไม่ตรงกับยอดที่ต้องชำระ")
	}
	if !r.NameMatches {
		reasons = append(reasons, "ชื่อบัญชีผู้รับเงินไม่ตรงกัน")
	}
	if !r.PhoneMatches {
		reasons = append(reasons, "หมายเลขพร้อมเพย์ผู้รับเงินไม่ตรงกัน")
	}
	r.Reason = strings.Join(reasons, " ")
	return r
}

// dateWithinWindow accepts slip dates from the transaction's creation up
// to 24 hours after it, both ends inclusive.
func dateWithinWindow(createdAt, slipDate time.Time) bool {
	return !slipDate.Before(createdAt) && !slipDate.After(createdAt.Add(slipWindow))
}

func amountMatches(want, got decimal.Decimal) bool {
	return want.Sub(got).Abs().LessThan(amountTolerance)
}

// namesMatch compares account names word-by-word in both directions: any
// word longer than one rune from either side that is contained in (or
// contains) a word from the other side counts as a match. Slip names come
// back with honorifics and partial masking, so equality is useless here.
func namesMatch(recorded, slip string) bool {
	a := nameWords(recorded)
	b := nameWords(slip)
	for _, wa := range a {
		for _, wb := range b {
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				return true
			}
		}
	}
	return false
}

// nameWords splits on anything that is not a letter or digit and keeps
// words longer than one rune.
func nameWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, w := range fields {
		if utf8.RuneCountInString(w) > 1 {
			words = append(words, w)
		}
	}
	return words
}

// phoneMatches compares the last four digits of both numbers. Slip proxy
// accounts are masked except for the tail, and some recipients are keyed
// by short codes, so a side with fewer than four digits never blocks.
func phoneMatches(recorded, slip string) bool {
	a := digitsOnly(recorded)
	b := digitsOnly(slip)
	if len(a) < 4 || len(b) < 4 {
		return true
	}
	return a[len(a)-4:] == b[len(b)-4:]
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
