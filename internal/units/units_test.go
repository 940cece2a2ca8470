package units

import (
	"math/big"
	"testing"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string // expected fixed-point integer, decimal string
		wantErr bool
	}{
		{name: "integer", in: "5", want: "5000000000000000000"},
		{name: "fraction", in: "12.5", want: "12500000000000000000"},
		{name: "zero", in: "0", want: "0"},
		{name: "leading dot", in: ".25", want: "250000000000000000"},
		{name: "full precision", in: "0.000000000000000001", want: "1"},
		{name: "whitespace", in: " 100 ", want: "100000000000000000000"},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "too precise", in: "0.0000000000000000001", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "double dot", in: "1.2.3", wantErr: true},
		{name: "signed fraction", in: "1.-5", wantErr: true},
		{name: "plus fraction", in: "2.+3", wantErr: true},
		{name: "plus whole", in: "+1", wantErr: true},
		{name: "hex digits", in: "0x10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseToken(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseToken(%q) unexpected error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseToken(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5000000000000000000", "5"},
		{"12500000000000000000", "12.5"},
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"-2500000000000000000", "-2.5"},
	}

	for _, tt := range tests {
		v, _ := new(big.Int).SetString(tt.in, 10)
		if got := FormatToken(v); got != tt.want {
			t.Errorf("FormatToken(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "0.5", "123.456", "0.000000000000000001"} {
		v, err := ParseToken(s)
		if err != nil {
			t.Fatalf("ParseToken(%q): %v", s, err)
		}
		if got := FormatToken(v); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}
