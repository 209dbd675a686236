package eapi

import "testing"

func TestLookupKnownEapis(t *testing.T) {
	for _, id := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "paludis-1", "exheres-0"} {
		if _, err := Lookup(id); err != nil {
			t.Errorf("Lookup(%q) returned error: %v", id, err)
		}
	}
}

func TestLookupUnknownEapiErrors(t *testing.T) {
	if _, err := Lookup("99-does-not-exist"); err == nil {
		t.Errorf("expected an error for an unknown EAPI id")
	}
}

func TestMustLookupPanicsOnUnknownEapi(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected MustLookup to panic on an unknown EAPI")
		}
	}()
	MustLookup("99-does-not-exist")
}

func TestEapiZeroDisallowsSlotDeps(t *testing.T) {
	opts, err := Lookup("0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.AllowSlotDeps {
		t.Errorf("EAPI 0 should not allow slot dependencies")
	}
	if opts.AllowSelfDeps {
		t.Errorf("EAPI 0 should not allow self dependencies")
	}
}

func TestEapiSevenAllowsSlotAndRepositorySpecs(t *testing.T) {
	opts, err := Lookup("7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.AllowSlotDeps {
		t.Errorf("EAPI 7 should allow slot dependencies")
	}
	if !opts.AllowRepositorySpecs {
		t.Errorf("EAPI 7 should allow repository specs")
	}
}
