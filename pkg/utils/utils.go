package utils

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common/math"
)

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

// ShortAddress keeps the head and tail of a hash, e.g. 0x1234...abcd.
func ShortAddress(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// AddCommas groups the integer digits of a plain decimal string. Anything
// else is returned unchanged.
func AddCommas(s string) string {
	if !IsNumeric(s) {
		return s
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	if sign == "+" {
		sign = ""
	}
	integerPart, frac, hasFrac := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(integerPart, 10)
	if !ok {
		n = new(big.Int)
	}
	out := sign + humanize.BigComma(n)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func FormatBigFloat(f *big.Float, decimals int) string {
	if f == nil {
		return "0"
	}
	return AddCommas(f.Text('f', decimals))
}

// FormatWei renders a wei amount in ether.
func FormatWei(wei *big.Int, decimals int) string {
	if wei == nil {
		return FormatBigFloat(new(big.Float), decimals)
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEther)
	return FormatBigFloat(f, decimals)
}

// IsNumeric reports whether s is a plain decimal number: an optional sign,
// digits and at most one decimal point. Hex and exponent forms are not.
func IsNumeric(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	digits, dot := 0, false
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

// FormatNumber groups the digits of a numeric string. Plain decimals keep
// their fraction as written; hex integers and exponent forms are converted
// to grouped decimal. ok is false when s is not a number.
func FormatNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if IsNumeric(s) {
		return AddCommas(s), true
	}
	if n, ok := math.ParseBig256(s); ok {
		return humanize.BigComma(n), true
	}
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil || f.IsInf() {
		return "", false
	}
	if f.IsInt() {
		n, _ := f.Int(nil)
		return humanize.BigComma(n), true
	}
	return humanize.BigCommaf(f), true
}
