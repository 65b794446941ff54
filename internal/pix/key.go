package pix

import (
	"regexp"
	"strings"
)

// KeyType identifies the shape of a PIX key.
type KeyType string

const (
	KeyTaxIDIndividual KeyType = "cpf"
	KeyTaxIDCompany    KeyType = "cnpj"
	KeyPhone           KeyType = "phone"
	KeyEmail           KeyType = "email"
	KeyRandom          KeyType = "random"
)

// Key is an immutable PIX key plus its detected (or supplied) type.
type Key struct {
	RawValue string
	Type     KeyType
}

var (
	digitsOnlyRx = regexp.MustCompile(`^[0-9]+$`)
	// Brazilian mobile shape: two-digit area code followed by the ninth
	// digit. Distinguishes an 11-digit phone from an 11-digit CPF.
	mobileRx = regexp.MustCompile(`^[1-9][0-9]9[0-9]{8}$`)
	phoneRx  = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	nonDigit = regexp.MustCompile(`[^0-9]`)
)

// NewKey builds a Key, classifying raw when no explicit type is given.
func NewKey(raw string) Key {
	return Key{RawValue: raw, Type: ClassifyKey(raw)}
}

// ClassifyKey detects the key type from the raw value's shape alone.
// CPF/CNPJ check digits are deliberately not verified here; see ValidateTaxID.
func ClassifyKey(raw string) KeyType {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "+") && phoneRx.MatchString(raw):
		return KeyPhone
	case digitsOnlyRx.MatchString(raw) && len(raw) == 11:
		if mobileRx.MatchString(raw) {
			return KeyPhone
		}
		return KeyTaxIDIndividual
	case digitsOnlyRx.MatchString(raw) && len(raw) == 14:
		return KeyTaxIDCompany
	case phoneRx.MatchString(raw):
		return KeyPhone
	case isEmail(raw):
		return KeyEmail
	default:
		return KeyRandom
	}
}

func isEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	return at < len(s)-1
}

// Format renders the key in its canonical on-wire representation:
// zero-padded digit strings for tax ids, +<country><national> for phones,
// lower-case for emails. Random keys pass through untouched.
func (k Key) Format() string {
	raw := strings.TrimSpace(k.RawValue)
	switch k.Type {
	case KeyTaxIDIndividual:
		return leftPadDigits(raw, 11)
	case KeyTaxIDCompany:
		return leftPadDigits(raw, 14)
	case KeyPhone:
		digits := nonDigit.ReplaceAllString(raw, "")
		if !strings.HasPrefix(raw, "+") && len(digits) <= 11 {
			digits = "55" + digits
		}
		return "+" + digits
	case KeyEmail:
		return strings.ToLower(raw)
	default:
		return k.RawValue
	}
}

func leftPadDigits(s string, width int) string {
	s = nonDigit.ReplaceAllString(s, "")
	for len(s) < width {
		s = "0" + s
	}
	return s
}
