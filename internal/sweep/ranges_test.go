package sweep

import (
	"math"
	"testing"
)

func TestParseRangeSpec(t *testing.T) {
	spec, err := ParseRangeSpec("0.05:0.95:0.05")
	if err != nil {
		t.Fatalf("ParseRangeSpec failed: %v", err)
	}
	if spec.Min != 0.05 || spec.Max != 0.95 || spec.Step != 0.05 {
		t.Errorf("got %+v, want {0.05 0.95 0.05}", spec)
	}
}

func TestParseRangeSpecErrors(t *testing.T) {
	cases := []string{
		"0.1:0.9",        // missing step
		"a:0.9:0.1",      // bad min
		"0.1:b:0.1",      // bad max
		"0.1:0.9:c",      // bad step
		"0.1:0.9:0",      // zero step
		"0.1:0.9:-0.1",   // negative step
		"0.1:0.9:0.1:x",  // too many parts
	}
	for _, s := range cases {
		if _, err := ParseRangeSpec(s); err == nil {
			t.Errorf("ParseRangeSpec(%q) accepted invalid spec", s)
		}
	}
}

func TestRangeSpecValues(t *testing.T) {
	vals := RangeSpec{Min: 0.1, Max: 0.5, Step: 0.1}.Values()
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	if len(vals) != len(want) {
		t.Fatalf("got %d values %v, want %d", len(vals), vals, len(want))
	}
	for i := range want {
		if math.Abs(vals[i]-want[i]) > 1e-9 {
			t.Errorf("value %d = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestRangeSpecValuesSinglePoint(t *testing.T) {
	vals := RangeSpec{Min: 0.3, Max: 0.3, Step: 0.1}.Values()
	if len(vals) != 1 || vals[0] != 0.3 {
		t.Errorf("got %v, want [0.3]", vals)
	}
}

func TestParseCSVFloat64s(t *testing.T) {
	got, err := ParseCSVFloat64s("0.1, 0.2,0.3")
	if err != nil {
		t.Fatalf("ParseCSVFloat64s failed: %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.3 {
		t.Errorf("got %v", got)
	}

	got, err = ParseCSVFloat64s("")
	if err != nil || got != nil {
		t.Errorf("empty input: got (%v, %v), want (nil, nil)", got, err)
	}

	if _, err := ParseCSVFloat64s("0.1,x"); err == nil {
		t.Error("expected error for invalid float")
	}
}
