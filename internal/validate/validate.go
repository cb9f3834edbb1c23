// Package validate checks the tour's contact form: Chilean RUT, email, phone and name.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrRUTLength     = errors.New("RUT debe tener entre 8 y 9 dígitos")
	ErrRUTNotNumeric = errors.New("RUT debe contener solo números")
	ErrRUTChecksum   = errors.New("RUT inválido")
	ErrEmail         = errors.New("Email inválido")
	ErrPhone         = errors.New("Teléfono debe tener formato válido (+56 9 XXXX XXXX)")
	ErrName          = errors.New("Nombre debe tener al menos 2 caracteres")
)

// rutIncompleteLen is the length below which a RUT is treated as still being typed.
const rutIncompleteLen = 7

var (
	rutStrip   = regexp.MustCompile(`[^0-9kK]`)
	phoneStrip = regexp.MustCompile(`[^0-9+]`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe    = regexp.MustCompile(`^(\+56)?[0-9]{8,9}$`)
	digitsRe   = regexp.MustCompile(`^[0-9]+$`)
)

// CleanRUT strips everything but digits and the K verifier, upper-cased.
func CleanRUT(s string) string {
	return strings.ToUpper(rutStrip.ReplaceAllString(s, ""))
}

// RUT validates a Chilean national ID with the mod-11 checksum.
// Blank input and input shorter than 7 significant characters are not errors.
func RUT(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	clean := CleanRUT(s)
	if len(clean) < rutIncompleteLen {
		return nil
	}
	if len(clean) < 8 || len(clean) > 9 {
		return ErrRUTLength
	}

	body, verifier := clean[:len(clean)-1], clean[len(clean)-1:]
	if !digitsRe.MatchString(body) {
		return ErrRUTNotNumeric
	}
	if VerifierDigit(body) != verifier {
		return ErrRUTChecksum
	}
	return nil
}

// VerifierDigit computes the mod-11 verifier of a numeric RUT body.
func VerifierDigit(body string) string {
	sum, multiplier := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return string(rune('0' + r))
	}
}

// FormatRUT renders a RUT as XX.XXX.XXX-X, truncating input past 9 characters.
func FormatRUT(s string) string {
	clean := CleanRUT(s)
	if len(clean) <= 1 {
		return clean
	}
	if len(clean) > 9 {
		clean = clean[:9]
	}

	body, verifier := clean[:len(clean)-1], clean[len(clean)-1:]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(body[i])
	}
	b.WriteByte('-')
	b.WriteString(verifier)
	return b.String()
}

// Email checks for a local part, an @ and a dotted domain.
func Email(s string) error {
	if !emailRe.MatchString(s) {
		return ErrEmail
	}
	return nil
}

// Phone accepts 8 or 9 digits with an optional +56 prefix; separators are ignored.
func Phone(s string) error {
	if !phoneRe.MatchString(phoneStrip.ReplaceAllString(s, "")) {
		return ErrPhone
	}
	return nil
}

// Name requires at least two non-blank characters.
func Name(s string) error {
	if len([]rune(strings.TrimSpace(s))) < 2 {
		return ErrName
	}
	return nil
}
