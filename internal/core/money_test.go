package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"$12", 1200, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Cents(0), "0.00"},
		{Cents(5), "0.05"},
		{Cents(1234), "12.34"},
		{Cents(100000), "1000.00"},
		{Cents(-305), "-3.05"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.m.Cents, got, tc.want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("1000")
	if err != nil || m != Cents(100000) {
		t.Fatalf("unexpected: %v %v", m, err)
	}
	if _, err := ParseMoney("nope"); err == nil {
		t.Fatalf("expected error")
	}
}
