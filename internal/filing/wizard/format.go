package wizard

import (
	"regexp"
	"strings"
)

var (
	cnicPattern  = regexp.MustCompile(`^\d{5}-\d{7}-\d{1}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ibanPattern  = regexp.MustCompile(`^PK\d{2}[A-Z]{4}\d{16}$`)
)

const cnicDigits = 13

// FormatCNIC keeps the digits of raw (at most 13) and inserts the dashes of the
// 5-7-1 layout as soon as enough digits are present, the way the input field
// formats while the user types:
//
//	"12345"         -> "12345"
//	"123456"        -> "12345-6"
//	"1234512345671" -> "12345-1234567-1"
func FormatCNIC(raw string) string {
	digits := make([]byte, 0, cnicDigits)
	for i := 0; i < len(raw) && len(digits) < cnicDigits; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	var b strings.Builder
	for i, d := range digits {
		if i == 5 || i == 12 {
			b.WriteByte('-')
		}
		b.WriteByte(d)
	}
	return b.String()
}

// ValidCNIC reports whether s is a complete, formatted CNIC.
func ValidCNIC(s string) bool {
	return cnicPattern.MatchString(s)
}

// ValidEmail reports whether s has the usual local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeIBAN upper-cases s and drops spaces.
func NormalizeIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// ValidIBAN reports whether s is a Pakistani IBAN (PKkk BBBB nnnnnnnnnnnnnnnn).
func ValidIBAN(s string) bool {
	return ibanPattern.MatchString(s)
}
