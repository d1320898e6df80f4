package pledge

import (
	"testing"

	perrors "pledged/errors"
)

func TestParsePromises_Basic(t *testing.T) {
	got, err := ParsePromises("stdio rpath wpath")
	if err != nil {
		t.Fatalf("ParsePromises() error = %v", err)
	}
	want := PLEDGE_STDIO | PLEDGE_RPATH | PLEDGE_WPATH
	if got != want {
		t.Errorf("ParsePromises() = %#x, want %#x", got, want)
	}
}

func TestParsePromises_ChownCompound(t *testing.T) {
	got, err := ParsePromises("chown")
	if err != nil {
		t.Fatalf("ParsePromises() error = %v", err)
	}
	if !got.Has(PLEDGE_CHOWN) || !got.Has(PLEDGE_CHOWNUID) {
		t.Errorf("ParsePromises(chown) = %#x, want CHOWN|CHOWNUID set", got)
	}
}

func TestParsePromises_FattrCompound(t *testing.T) {
	got, err := ParsePromises("fattr")
	if err != nil {
		t.Fatalf("ParsePromises() error = %v", err)
	}
	if !got.Has(PLEDGE_FATTR) || !got.Has(PLEDGE_CHOWN) {
		t.Errorf("ParsePromises(fattr) = %#x, want FATTR|CHOWN set", got)
	}
}

func TestParsePromises_Unknown(t *testing.T) {
	_, err := ParsePromises("stdio bogus")
	if !perrors.Is(err, perrors.ErrUnknownPromise) {
		t.Errorf("ParsePromises(bogus) error = %v, want ErrUnknownPromise", err)
	}
}

func TestParsePromises_NameTooLong(t *testing.T) {
	long := "this_name_is_definitely_longer_than_the_limit_allows"
	_, err := ParsePromises(long)
	if !perrors.Is(err, perrors.ErrNameTooLong) {
		t.Errorf("ParsePromises(long) error = %v, want ErrNameTooLong", err)
	}
}

func TestParsePromises_Empty(t *testing.T) {
	got, err := ParsePromises("")
	if err != nil {
		t.Fatalf("ParsePromises(\"\") error = %v", err)
	}
	if got != 0 {
		t.Errorf("ParsePromises(\"\") = %#x, want 0", got)
	}
}

// TestParseRoundTrip checks spec.md's testable property: parsing a
// canonical promise string and re-stringifying it is idempotent.
func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"stdio rpath wpath",
		"stdio exec proc",
		"inet dns unix",
		"",
	}
	for _, in := range inputs {
		p1, err := ParsePromises(in)
		if err != nil {
			t.Fatalf("ParsePromises(%q) error = %v", in, err)
		}
		p2, err := ParsePromises(p1.String())
		if err != nil {
			t.Fatalf("ParsePromises(%q) (round trip) error = %v", p1.String(), err)
		}
		if p1 != p2 {
			t.Errorf("round trip mismatch for %q: %#x -> %q -> %#x", in, p1, p1.String(), p2)
		}
	}
}

func TestPromises_HasAny(t *testing.T) {
	p := PLEDGE_STDIO | PLEDGE_RPATH
	if !p.Has(PLEDGE_STDIO) {
		t.Error("Has(STDIO) = false, want true")
	}
	if p.Has(PLEDGE_STDIO | PLEDGE_WPATH) {
		t.Error("Has(STDIO|WPATH) = true, want false")
	}
	if !p.Any(PLEDGE_WPATH | PLEDGE_RPATH) {
		t.Error("Any(WPATH|RPATH) = false, want true")
	}
}
