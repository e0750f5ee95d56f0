package utils

import "testing"

func TestFormatYuan(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "¥0.00"},
		{999, "¥999.00"},
		{1234567.89, "¥1,234,567.89"},
		{300000, "¥300,000.00"},
		{-45000.5, "-¥45,000.50"},
	}
	for _, tc := range cases {
		if got := FormatYuan(tc.in); got != tc.want {
			t.Errorf("FormatYuan(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatYuanCompact(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3605000000, "36.05亿"},
		{1e8, "1亿"},
		{125000, "12.5万"},
		{10000, "1万"},
		{9999, "9999.00"},
		{-2.5e8, "-2.5亿"},
	}
	for _, tc := range cases {
		if got := FormatYuanCompact(tc.in); got != tc.want {
			t.Errorf("FormatYuanCompact(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(2.456); got != "+2.46%" {
		t.Errorf("FormatPct = %q", got)
	}
	if got := FormatPct(-1.23); got != "-1.23%" {
		t.Errorf("FormatPct = %q", got)
	}
}

func TestToWanToYi(t *testing.T) {
	if got := ToWan(250000); got != 25 {
		t.Errorf("ToWan = %v", got)
	}
	if got := ToYi(3.6e9); got != 36 {
		t.Errorf("ToYi = %v", got)
	}
}
