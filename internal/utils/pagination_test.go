package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 0, 42},
		{"", 10, 10},
		{"x", 5, 5},
		{"-3", 1, -3},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q,%d) = %d; want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestPage(t *testing.T) {
	cases := []struct {
		p, s             string
		wantPage, wantSz int
	}{
		{"", "", 1, 20},
		{"3", "50", 3, 50},
		{"0", "0", 1, 20},
		{"-2", "500", 1, 100},
		{"abc", "x", 1, 20},
	}
	for _, tc := range cases {
		p, s := Page(tc.p, tc.s, 20, 100)
		if p != tc.wantPage || s != tc.wantSz {
			t.Fatalf("Page(%q,%q) = (%d,%d); want (%d,%d)", tc.p, tc.s, p, s, tc.wantPage, tc.wantSz)
		}
	}
}

func TestOffset(t *testing.T) {
	if Offset(1, 20) != 0 || Offset(3, 20) != 40 || Offset(0, 20) != 0 {
		t.Fatalf("unexpected offsets")
	}
}
