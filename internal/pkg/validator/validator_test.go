package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidComponentCode(t *testing.T) {
	valid := []string{"LATE_PENALTY", "HOUSING_ALLOWANCE", "GOSI", "OT_150"}
	invalid := []string{"", "late_penalty", "L", "9PENALTY", "WITH SPACE", "TOO_LONG_COMPONENT_CODE_OVER_THIRTY_CHARS"}
	for _, code := range valid {
		if !IsValidComponentCode(code) {
			t.Errorf("IsValidComponentCode(%q) = false, want true", code)
		}
	}
	for _, code := range invalid {
		if IsValidComponentCode(code) {
			t.Errorf("IsValidComponentCode(%q) = true, want false", code)
		}
	}
}

func TestIsValidMonth(t *testing.T) {
	for _, m := range []int{1, 6, 12} {
		if !IsValidMonth(m) {
			t.Errorf("IsValidMonth(%d) = false, want true", m)
		}
	}
	for _, m := range []int{0, 13, -1} {
		if IsValidMonth(m) {
			t.Errorf("IsValidMonth(%d) = true, want false", m)
		}
	}
}

func TestIndexedField(t *testing.T) {
	got := IndexedField("conditions", 2, "operator")
	if got != "conditions[2].operator" {
		t.Errorf("IndexedField = %q, want %q", got, "conditions[2].operator")
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0191c5a8-90ab-7def-89ab-0123456789ab",
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
	}
	invalid := []string{"", "not-a-uuid", "0191c5a890ab7def89ab0123456789ab"}
	for _, u := range valid {
		if !IsValidUUID(u) {
			t.Errorf("IsValidUUID(%q) = false, want true", u)
		}
	}
	for _, u := range invalid {
		if IsValidUUID(u) {
			t.Errorf("IsValidUUID(%q) = true, want false", u)
		}
	}
}
