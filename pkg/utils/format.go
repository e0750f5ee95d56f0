// Package utils provides common formatting helpers for the fund advisor.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatYuan formats an amount in yuan with thousands grouping
// (¥1,234,567.89).
func FormatYuan(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	intPart := int64(amount)
	decPart := amount - float64(intPart)

	formatted := groupThousands(intPart)

	if decPart > 0 {
		decStr := fmt.Sprintf("%.2f", decPart)
		formatted += decStr[1:] // skip the leading "0"
	} else {
		formatted += ".00"
	}

	if negative {
		return "-¥" + formatted
	}
	return "¥" + formatted
}

// FormatYuanCompact formats an amount in compact Chinese notation.
// e.g., 3605000000 → "36.05亿", 125000 → "12.5万"
func FormatYuanCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := ""
	if negative {
		prefix = "-"
	}

	switch {
	case amount >= 1e8:
		return fmt.Sprintf("%s%s亿", prefix, formatWithDecimals(amount/1e8))
	case amount >= 1e4:
		return fmt.Sprintf("%s%s万", prefix, formatWithDecimals(amount/1e4))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// ToWan converts a raw yuan amount to 万 (ten-thousands).
func ToWan(amount float64) float64 {
	return amount / 1e4
}

// ToYi converts a raw yuan amount to 亿 (hundred-millions).
func ToYi(amount float64) float64 {
	return amount / 1e8
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// groupThousands formats an integer with standard 3-digit grouping.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	result := s[len(s)-3:]
	remaining := s[:len(s)-3]
	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "," + result
		remaining = remaining[:len(remaining)-3]
	}
	return remaining + "," + result
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
