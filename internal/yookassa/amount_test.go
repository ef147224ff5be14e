package yookassa

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{99, "0.99"},
		{100, "1.00"},
		{1200, "12.00"},
		{123456, "1234.56"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.minor); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.00", 1200, false},
		{"12", 1200, false},
		{"12.5", 1250, false},
		{"0.05", 5, false},
		{"1234.56", 123456, false},
		{"12.345", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 1200, 999999} {
		got, err := ParseAmount(FormatAmount(minor))
		if err != nil {
			t.Fatalf("round trip %d: %v", minor, err)
		}
		if got != minor {
			t.Errorf("round trip %d: got %d", minor, got)
		}
	}
}
