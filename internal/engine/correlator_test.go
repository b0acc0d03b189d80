package engine

import "testing"

func TestCorrelatorExactKeyMatch(t *testing.T) {
	c := NewToolCallCorrelator()
	rec := c.RecordCall("grep", 1000, map[string]any{"pattern": "auth"})

	got := c.AttachOutput("grep", 1000, "no matches")
	if got != rec {
		t.Fatal("output should attach to the record with the matching key")
	}
	if !rec.HasOutput || rec.Output != "no matches" {
		t.Errorf("record output = %q (has=%v), want attached output", rec.Output, rec.HasOutput)
	}
}

func TestCorrelatorNameFallback(t *testing.T) {
	c := NewToolCallCorrelator()
	rec := c.RecordCall("read_file", 1000.5, nil)

	// Different timestamp: exact key misses, name fallback hits.
	got := c.AttachOutput("read_file", 1002.75, "package main ...")
	if got != rec {
		t.Fatal("output should fall back to the most recent call by name")
	}
	if rec.Output != "package main ..." {
		t.Errorf("record output = %q", rec.Output)
	}
}

func TestCorrelatorFallbackPrefersLatestCall(t *testing.T) {
	c := NewToolCallCorrelator()
	first := c.RecordCall("grep", 1000, nil)
	second := c.RecordCall("grep", 1005, nil)

	got := c.AttachOutput("grep", 1099, "late output")
	if got != second {
		t.Fatal("fallback should target the most recently registered call")
	}
	if first.HasOutput {
		t.Error("older call must not receive the output")
	}
}

func TestCorrelatorExactKeyBeatsFallback(t *testing.T) {
	c := NewToolCallCorrelator()
	older := c.RecordCall("grep", 1000, nil)
	newer := c.RecordCall("grep", 1005, nil)

	// The output's timestamp matches the older call exactly; the exact key
	// must win even though the newer call is the fallback target.
	got := c.AttachOutput("grep", 1000, "out")
	if got != older {
		t.Fatal("exact key match must take precedence over name fallback")
	}
	if newer.HasOutput {
		t.Error("fallback target must not receive the output")
	}
}

func TestCorrelatorMissReturnsNil(t *testing.T) {
	c := NewToolCallCorrelator()
	if got := c.AttachOutput("unknown_tool", 1000, "orphan"); got != nil {
		t.Errorf("expected nil for unmatched output, got %+v", got)
	}
}

func TestCorrelatorNoRetroactiveLink(t *testing.T) {
	c := NewToolCallCorrelator()

	// Output arrives before its call: recorded as a miss.
	if got := c.AttachOutput("grep", 1000, "early"); got != nil {
		t.Fatal("out-of-order output must not match")
	}

	// The call arriving later must not pick up the earlier output.
	rec := c.RecordCall("grep", 1000, nil)
	if rec.HasOutput {
		t.Error("call must not be retroactively linked to an earlier output")
	}
}

func TestCorrelatorIdenticalTimestampCollision(t *testing.T) {
	c := NewToolCallCorrelator()
	first := c.RecordCall("grep", 1000, nil)
	second := c.RecordCall("grep", 1000, nil)

	// Identical (name, timestamp) pairs collide on the key; the second call
	// overwrites the first as both the key target and the fallback target.
	got := c.AttachOutput("grep", 1000, "out")
	if got != second {
		t.Fatal("colliding key should resolve to the most recent record")
	}
	if first.HasOutput {
		t.Error("overwritten record must not receive the output")
	}
}

func TestCorrelatorReset(t *testing.T) {
	c := NewToolCallCorrelator()
	c.RecordCall("grep", 1000, nil)
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("expected empty correlator after reset, got %d", c.Len())
	}
	if got := c.AttachOutput("grep", 1000, "out"); got != nil {
		t.Error("reset correlator must not match old calls")
	}
}
