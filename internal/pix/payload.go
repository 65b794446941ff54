package pix

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// BR Code field identifiers, in canonical emission order.
const (
	tagPayloadFormat     = "00"
	tagInitiationMethod  = "01"
	tagMerchantAccount   = "26"
	tagMerchantCategory  = "52"
	tagCurrency          = "53"
	tagAmount            = "54"
	tagCountry           = "58"
	tagMerchantName      = "59"
	tagMerchantCity      = "60"
	tagAdditionalData    = "62"
	tagCRC               = "63"
	subTagGUI            = "00"
	subTagKey            = "01"
	subTagDescription    = "02"
	subTagTransactionID  = "05"
	merchantAccountGUI   = "br.gov.bcb.pix"
	currencyBRL          = "986"
	categoryUnclassified = "0000"
	countryBR            = "BR"

	// Wallets expect 62/05 present even when no transaction id was given.
	placeholderTxID = "***"

	maxMerchantName = 25
	maxMerchantCity = 15
	maxTxID         = 25
	maxDescription  = 72
	maxFieldValue   = 99
)

// Merchant is the receiving merchant's display profile.
type Merchant struct {
	Name string
	City string
}

// Request carries everything needed to encode one BR Code payload.
// AmountCents == 0 produces a static code (payer types the amount).
type Request struct {
	Key           Key
	Merchant      Merchant
	AmountCents   int64
	TransactionID string
	Description   string
}

// EncodingError reports a request that cannot produce a valid payload.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("pix payload: %s: %s", e.Field, e.Reason)
}

// BuildPayload assembles the BR Code (EMV MPM) text for req: the ordered
// tag-length-value sequence terminated by the CRC-16 over everything that
// precedes it, including the literal "6304" marker.
func BuildPayload(req Request) (string, error) {
	if req.AmountCents < 0 {
		return "", &EncodingError{Field: "amount", Reason: "negative amount"}
	}

	name := Normalize(req.Merchant.Name, maxMerchantName)
	if strings.TrimSpace(name) == "" {
		return "", &EncodingError{Field: "merchant name", Reason: "empty after normalization"}
	}
	city := Normalize(req.Merchant.City, maxMerchantCity)
	if strings.TrimSpace(city) == "" {
		return "", &EncodingError{Field: "merchant city", Reason: "empty after normalization"}
	}

	account, err := merchantAccountInfo(req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(emvField(tagPayloadFormat, "01"))
	if req.AmountCents > 0 {
		b.WriteString(emvField(tagInitiationMethod, "12"))
	} else {
		b.WriteString(emvField(tagInitiationMethod, "11"))
	}
	b.WriteString(emvField(tagMerchantAccount, account))
	b.WriteString(emvField(tagMerchantCategory, categoryUnclassified))
	b.WriteString(emvField(tagCurrency, currencyBRL))
	if req.AmountCents > 0 {
		b.WriteString(emvField(tagAmount, formatAmount(req.AmountCents)))
	}
	b.WriteString(emvField(tagCountry, countryBR))
	b.WriteString(emvField(tagMerchantName, name))
	b.WriteString(emvField(tagMerchantCity, city))
	b.WriteString(emvField(tagAdditionalData, emvField(subTagTransactionID, transactionID(req.TransactionID))))

	b.WriteString(tagCRC + "04")
	payload := b.String()
	return payload + Checksum(payload), nil
}

func merchantAccountInfo(req Request) (string, error) {
	var b strings.Builder
	b.WriteString(emvField(subTagGUI, merchantAccountGUI))
	b.WriteString(emvField(subTagKey, req.Key.Format()))

	if desc := strings.TrimSpace(req.Description); desc != "" {
		desc = truncateRuneSafe(desc, maxDescription)
		// The template length itself is two digits, so the description
		// shrinks to whatever room the key left.
		if room := maxFieldValue - b.Len() - 4; len(desc) > room {
			desc = truncateRuneSafe(desc, room)
		}
		if desc != "" {
			b.WriteString(emvField(subTagDescription, desc))
		}
	}

	if b.Len() > maxFieldValue {
		return "", &EncodingError{Field: "merchant account", Reason: "key too long for template"}
	}
	return b.String(), nil
}

func transactionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return placeholderTxID
	}
	return truncateRuneSafe(id, maxTxID)
}

// truncateRuneSafe cuts s down to at most max bytes without splitting a
// multi-byte rune, so a truncated value is still valid UTF-8.
func truncateRuneSafe(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// formatAmount renders cents as decimal currency units with exactly two
// fraction digits, e.g. 2350 -> "23.50".
func formatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func emvField(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}
