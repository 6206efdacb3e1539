package promptpay

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
)

// EMVCo merchant-presented QR tags.
const (
	tagPayloadFormat       = "00"
	tagPointOfInitiation   = "01"
	tagMerchantAccountInfo = "29"
	tagCurrency            = "53"
	tagAmount              = "54"
	tagCountryCode         = "58"
	tagCRC                 = "63"

	subTagAID    = "00"
	subTagMobile = "01"

	promptPayAID = "A000000677010111"
	currencyTHB  = "764"
	countryTH    = "TH"

	initiationStatic  = "11"
	initiationDynamic = "12"
)

// BuildPayload assembles the PromptPay EMVCo payload for a mobile-number
// target. A positive amount makes the code dynamic (single-scan with the
// amount prefilled); zero yields a static code.
func BuildPayload(phoneNumber string, amount decimal.Decimal) (string, error) {
	target := formatMobileTarget(phoneNumber)
	if target == "" {
		return "", domain.ErrInvalidArgument
	}
	if amount.IsNegative() {
		return "", domain.ErrInvalidArgument
	}

	initiation := initiationStatic
	if amount.IsPositive() {
		initiation = initiationDynamic
	}

	var sb strings.Builder
	sb.WriteString(tlv(tagPayloadFormat, "01"))
	sb.WriteString(tlv(tagPointOfInitiation, initiation))
	sb.WriteString(tlv(tagMerchantAccountInfo,
		tlv(subTagAID, promptPayAID)+tlv(subTagMobile, target)))
	sb.WriteString(tlv(tagCurrency, currencyTHB))
	if amount.IsPositive() {
		sb.WriteString(tlv(tagAmount, amount.StringFixed(2)))
	}
	sb.WriteString(tlv(tagCountryCode, countryTH))

	// The CRC covers everything up to and including its own tag+length.
	data := sb.String() + tagCRC + "04"
	return data + fmt.Sprintf("%04X", crc16CCITT([]byte(data))), nil
}

func tlv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// formatMobileTarget converts a local Thai mobile number to the 13-digit
// PromptPay form: country code 66 replaces the leading zero, left-padded
// with zeros.
func formatMobileTarget(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 9 {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		digits = "66" + digits[1:]
	}
	return fmt.Sprintf("%013s", digits)
}

// crc16CCITT implements CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) as
// required by the EMVCo QR spec.
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
