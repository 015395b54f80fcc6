package report

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	glDigits       = 5
	labelSeparator = " - "
)

var errNotAmount = errors.New("not an amount")

// ParseLabel splits a "DDDDD - description" row label. The GL number is the
// first five characters when they are all digits, otherwise 0 (the row is
// narrative or a subtotal). The description starts at character 8 when the
// code is followed by the " - " separator, else right after the code.
// The code position is not adjusted: an indented label has no GL number.
func ParseLabel(label string) (int, string) {
	if len(label) < glDigits {
		return 0, ""
	}
	for i := 0; i < glDigits; i++ {
		if label[i] < '0' || label[i] > '9' {
			return 0, ""
		}
	}
	gl, _ := strconv.Atoi(label[:glDigits])

	rest := label[glDigits:]
	if strings.HasPrefix(rest, labelSeparator) {
		rest = rest[len(labelSeparator):]
	}
	return gl, strings.TrimSpace(rest)
}

// ParseAmount normalizes a currency-formatted cell to a signed decimal.
// Currency symbols, thousands separators and spaces are removed; a leading
// minus or surrounding parentheses make the amount negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = cleaned[1:]
	}
	if cleaned == "" || !isPlainNumber(cleaned) {
		return decimal.Zero, errNotAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// isPlainNumber accepts digits with at most one decimal point.
func isPlainNumber(s string) bool {
	dot := false
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
