package main

import "testing"

func TestLoopRangeFlagParsesStartEnd(t *testing.T) {
	var f loopRangeFlag
	if err := f.Set("100:200"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !f.set || f.start != 100 || f.end != 200 {
		t.Fatalf("got set=%v start=%d end=%d", f.set, f.start, f.end)
	}
	if got := f.String(); got != "100:200" {
		t.Fatalf("String() = %q", got)
	}
}

func TestLoopRangeFlagRejectsMalformed(t *testing.T) {
	cases := []string{"", "100", "100:", ":200", "abc:200", "100:abc", "200:100"}
	for _, c := range cases {
		var f loopRangeFlag
		if err := f.Set(c); err == nil {
			t.Errorf("Set(%q) expected error, got nil", c)
		}
	}
}

func TestLoopRangeFlagStringBeforeSet(t *testing.T) {
	var f loopRangeFlag
	if got := f.String(); got != "" {
		t.Fatalf("String() before Set() = %q, want empty", got)
	}
}
