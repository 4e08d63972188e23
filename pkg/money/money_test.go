package money

import "testing"

func TestApplyBps(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"ten percent", 10000, 1000, 1000},
		{"seven percent", 10000, 700, 700},
		{"rounds half up", 15, 1000, 2},
		{"rounds down below half", 14, 1000, 1},
		{"zero amount", 0, 1000, 0},
		{"zero rate", 5000, 0, 0},
		{"large amount no overflow", 9_000_000_000_000, 250, 225_000_000_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyBps(tc.amount, tc.bps); got != tc.want {
				t.Fatalf("ApplyBps(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
			}
		})
	}
}

func TestSplitByBpsReconstructsGross(t *testing.T) {
	for _, gross := range []int64{1, 99, 10000, 12345, 9999999} {
		fee, net := SplitByBps(gross, 1000)
		if fee+net != gross {
			t.Fatalf("fee %d + net %d != gross %d", fee, net, gross)
		}
		if fee < 0 || net < 0 {
			t.Fatalf("negative split for gross %d: fee=%d net=%d", gross, fee, net)
		}
	}
}

func TestParseMinor(t *testing.T) {
	if got, err := ParseMinor("15000"); err != nil || got != 15000 {
		t.Fatalf("ParseMinor(15000) = %d, %v", got, err)
	}
	if got, err := ParseMinor(" 42 "); err != nil || got != 42 {
		t.Fatalf("ParseMinor with whitespace = %d, %v", got, err)
	}
	for _, bad := range []string{"", "abc", "1.5", "1e3"} {
		if _, err := ParseMinor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(15000); got != "15000" {
		t.Fatalf("FormatMinor(15000) = %q", got)
	}
	if got := FormatMinor(-5000); got != "-5000" {
		t.Fatalf("FormatMinor(-5000) = %q", got)
	}
}
