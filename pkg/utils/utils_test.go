package utils

import (
	"math/big"
	"testing"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", "0xAb58...eC9B"},
		{"0x1234", "0x1234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := ShortAddress(tt.input)
		if result != tt.expected {
			t.Errorf("ShortAddress(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
		{"-1234", "-1,234"},
		{"123456789012345678901234567890.000000000000000001", "123,456,789,012,345,678,901,234,567,890.000000000000000001"},
		{"0xde0b6b3a7640000", "0xde0b6b3a7640000"},
		{"1e+21", "1e+21"},
		{"", ""},
	}

	for _, tt := range tests {
		result := AddCommas(tt.input)
		if result != tt.expected {
			t.Errorf("AddCommas(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatBigFloat(t *testing.T) {
	tests := []struct {
		input    *big.Float
		decimals int
		expected string
	}{
		{big.NewFloat(1234.5678), 2, "1,234.57"},
		{nil, 2, "0"},
	}

	for _, tt := range tests {
		result := FormatBigFloat(tt.input, tt.decimals)
		if result != tt.expected {
			t.Errorf("FormatBigFloat(%v, %d) = %q; want %q", tt.input, tt.decimals, result, tt.expected)
		}
	}
}

func TestFormatWei(t *testing.T) {
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	large, _ := new(big.Int).SetString("1234000000000000000000", 10)

	tests := []struct {
		input    *big.Int
		decimals int
		expected string
	}{
		{oneAndHalf, 4, "1.5000"},
		{large, 2, "1,234.00"},
		{big.NewInt(0), 2, "0.00"},
		{nil, 2, "0.00"},
	}

	for _, tt := range tests {
		result := FormatWei(tt.input, tt.decimals)
		if result != tt.expected {
			t.Errorf("FormatWei(%v, %d) = %q; want %q", tt.input, tt.decimals, result, tt.expected)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric("12.5") || !IsNumeric("7") {
		t.Error("expected decimal strings to be numeric")
	}
	if IsNumeric("") || IsNumeric("0xzz") || IsNumeric("abc") || IsNumeric("0xde0b6b3a7640000") || IsNumeric("1e+21") || IsNumeric("1.2.3") {
		t.Error("expected non-numbers to be rejected")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"1234.5", "1,234.5", true},
		{"-1234", "-1,234", true},
		{"0xde0b6b3a7640000", "1,000,000,000,000,000,000", true},
		{"1e+21", "1,000,000,000,000,000,000,000", true},
		{"-2.5e3", "-2,500", true},
		{"n/a", "", false},
		{"Inf", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		result, ok := FormatNumber(tt.input)
		if ok != tt.ok || result != tt.expected {
			t.Errorf("FormatNumber(%q) = %q, %v; want %q, %v", tt.input, result, ok, tt.expected, tt.ok)
		}
	}
}
