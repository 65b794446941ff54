package pix

// ValidateTaxID verifies the check digits of a CPF (11 digits) or CNPJ
// (14 digits). It is an optional, separately invoked concern: key
// classification and payload generation never call it, so a key with bad
// check digits still encodes.
func ValidateTaxID(id string) bool {
	digits := nonDigit.ReplaceAllString(id, "")
	switch len(digits) {
	case 11:
		return validCPF(digits)
	case 14:
		return validCNPJ(digits)
	default:
		return false
	}
}

func validCPF(d string) bool {
	if allSame(d) {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(d[i]-'0') * (10 - i)
	}
	if checkDigit(sum) != int(d[9]-'0') {
		return false
	}
	sum = 0
	for i := 0; i < 10; i++ {
		sum += int(d[i]-'0') * (11 - i)
	}
	return checkDigit(sum) == int(d[10]-'0')
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

func validCNPJ(d string) bool {
	if allSame(d) {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(d[i]-'0') * cnpjWeights[i+1]
	}
	if checkDigit(sum) != int(d[12]-'0') {
		return false
	}
	sum = 0
	for i := 0; i < 13; i++ {
		sum += int(d[i]-'0') * cnpjWeights[i]
	}
	return checkDigit(sum) == int(d[13]-'0')
}

func checkDigit(sum int) int {
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
