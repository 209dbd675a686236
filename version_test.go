package paludis

import "testing"

func TestParseVersionValid(t *testing.T) {
	cases := []string{
		"1", "1.2", "1.2.3", "1.0", "1.2.3a", "1.2.3_pre4", "1.2.3_pre",
		"1.2.3_alpha1_beta2", "1.2.3-r1", "1.2.3_p1-r4", "0001",
	}
	for _, s := range cases {
		if _, err := ParseVersion(s); err != nil {
			t.Errorf("ParseVersion(%q) unexpected error: %v", s, err)
		}
	}
}

func TestParseVersionInvalid(t *testing.T) {
	cases := []string{"", "a.b.c", "1..2", "1.2_bogus", "1.2.", ".1.2"}
	for _, s := range cases {
		if _, err := ParseVersion(s); err == nil {
			t.Errorf("ParseVersion(%q) expected error, got none", s)
		}
	}
}

func TestVersionCompareOrdering(t *testing.T) {
	// earlier entries compare less than later ones
	ordered := []string{
		"1.0_alpha1",
		"1.0_alpha2",
		"1.0_beta1",
		"1.0_pre1",
		"1.0_rc1",
		"1.0",
		"1.0-r1",
		"1.0-r2",
		"1.0_p1",
		"1.1",
		"2.0",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, err := ParseVersion(ordered[i])
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", ordered[i], err)
		}
		b, err := ParseVersion(ordered[i+1])
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", ordered[i+1], err)
		}
		if !a.Less(b) {
			t.Errorf("expected %q < %q", ordered[i], ordered[i+1])
		}
		if b.Less(a) {
			t.Errorf("expected %q not < %q", ordered[i+1], ordered[i])
		}
	}
}

func TestVersionLeadingZeroStringCompare(t *testing.T) {
	a, err := ParseVersion("1.010")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseVersion("1.02")
	if err != nil {
		t.Fatal(err)
	}
	// "010" < "02" as strings, even though 10 > 2 numerically; string
	// comparison is used once a leading zero appears on a non-first part.
	if !a.Less(b) {
		t.Errorf("expected 1.010 < 1.02 under leading-zero string compare")
	}
}

func TestVersionTildeIgnoresRevision(t *testing.T) {
	a, err := ParseVersion("1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseVersion("1.2.3-r5")
	if err != nil {
		t.Fatal(err)
	}
	if a.Compare(b, false) == 0 {
		t.Errorf("expected 1.2.3 != 1.2.3-r5 under strict compare")
	}
	if a.Compare(b, true) != 0 {
		t.Errorf("expected 1.2.3 == 1.2.3-r5 when ignoring revision")
	}
}

func TestVersionOperatorMatches(t *testing.T) {
	v := func(s string) VersionSpec {
		p, err := ParseVersion(s)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", s, err)
		}
		return p
	}

	cases := []struct {
		op        VersionOperator
		candidate string
		target    string
		want      bool
	}{
		{OpLess, "1.0", "1.1", true},
		{OpLess, "1.1", "1.1", false},
		{OpLessEqual, "1.1", "1.1", true},
		{OpEqual, "1.1", "1.1", true},
		{OpEqual, "1.1", "1.1-r1", false},
		{OpTildeEqual, "1.1-r2", "1.1-r9", true},
		{OpGreaterEqual, "1.2", "1.1", true},
		{OpGreater, "1.1", "1.1", false},
		{OpEqualWildcard, "1.2.3", "1.2", true},
		{OpEqualWildcard, "1.3", "1.2", false},
	}
	for _, c := range cases {
		got := c.op.Matches(v(c.candidate), v(c.target))
		if got != c.want {
			t.Errorf("%s.Matches(%s, %s) = %v, want %v", c.op, c.candidate, c.target, got, c.want)
		}
	}
}
