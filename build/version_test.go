package build

import (
	"fmt"
	"testing"
)

func TestVersionCompare(t *testing.T) {
	versionTests := []struct {
		a, b ProtocolVersion
		exp  int
	}{
		{NewVersion(0, 1, 0), NewVersion(0, 0, 9), 1},
		{NewVersion(0, 1, 0), NewVersion(0, 1, 0), 0},
		{NewVersion(0, 1, 0), NewVersion(0, 1, 1), -1},
		{NewVersion(0, 1, 0), NewVersion(1, 1, 0), -1},
		{NewPrereleaseVersion(0, 1, 1, "0"), NewVersion(0, 1, 1), -1},
		{NewVersion(1, 2, 3), NewPrereleaseVersion(1, 2, 3, "0"), 1},
		{NewPrereleaseVersion(1, 2, 3, "foo"), NewPrereleaseVersion(1, 2, 3, "bar"), 0},
	}

	for _, test := range versionTests {
		if actual := test.a.Compare(test.b); actual != test.exp {
			t.Errorf("comparing %s to %s should return %v (got %v)",
				test.a.String(), test.b.String(), test.exp, actual)
		}
	}
}

func TestVersionString(t *testing.T) {
	versionTests := []struct {
		v   ProtocolVersion
		exp string
	}{
		{NewVersion(1, 0, 0), "1.0.0"},
		{NewVersion(1, 2, 3), "1.2.3"},
		{NewPrereleaseVersion(1, 0, 0, ""), "1.0.0"},
		{NewPrereleaseVersion(1, 0, 0, "12345678"), "1.0.0-12345678"},
		{NewPrereleaseVersion(1, 0, 0, "123456789"), "1.0.0-12345678"}, // overflow prerelease truncates
	}

	for _, test := range versionTests {
		if actual := test.v.String(); actual != test.exp {
			t.Errorf("stringifying %v should result in %v (got %v)", test.v, test.exp, actual)
		}
	}
}

func TestVersionParseRoundTrip(t *testing.T) {
	testCases := []struct {
		in, out string
	}{
		{"1", "1.0.0"},
		{"1.1", "1.1.0"},
		{"1.1.1", "1.1.1"},
		{"1.1.1-1", "1.1.1-1"},
		{"255.255.255-12345678", "255.255.255-12345678"},
		{"1.2.3-alpha", "1.2.3-alpha"},
		{"0.1", "0.1.0"},
	}

	for index, testCase := range testCases {
		version, err := Parse(testCase.in)
		if err != nil {
			t.Errorf("test %d failed: %v", index, err)
			continue
		}
		if out := version.String(); testCase.out != out {
			t.Errorf("test %d failed: expected %q, got %q", index, testCase.out, out)
			continue
		}

		version2, err := Parse("v" + testCase.in)
		if err != nil {
			t.Errorf("test %d (v-prefixed) failed: %v", index, err)
			continue
		}
		if version.Compare(version2) != 0 {
			t.Errorf("test %d: %q and %q should compare equal", index, version, version2)
		}
	}
}

func TestVersionJSONRoundTrip(t *testing.T) {
	testCases := []ProtocolVersion{
		NewVersion(0, 0, 0),
		NewVersion(1, 2, 3),
		NewPrereleaseVersion(1, 2, 3, "4"),
		NewPrereleaseVersion(255, 255, 255, "        "),
	}
	for index, in := range testCases {
		encoded, err := in.MarshalJSON()
		if err != nil {
			t.Errorf("test %d failed: MarshalJSON: %v", index, err)
			continue
		}

		var out ProtocolVersion
		if err := out.UnmarshalJSON(encoded); err != nil {
			t.Errorf("test %d failed: UnmarshalJSON: %v", index, err)
			continue
		}

		if in.String() != out.String() {
			t.Errorf("test %d failed: expected %q, got %q", index, in, out)
		}
	}
}

func TestInvalidVersionRange(t *testing.T) {
	invalid := []string{"256", "1.256", "1.1.256", "1.256.256", "256.256.256"}
	for _, raw := range invalid {
		if _, err := Parse(raw); err == nil {
			t.Errorf("expected %q to be out of range", raw)
		}
	}
}

func TestValidVersionRange(t *testing.T) {
	for major := 0; major <= 255; major += 51 {
		for minor := 0; minor <= 255; minor += 51 {
			for patch := 0; patch <= 255; patch += 51 {
				raw := fmt.Sprintf("%d.%d.%d", major, minor, patch)
				version, err := Parse(raw)
				if err != nil {
					t.Errorf("test %q failed: %v", raw, err)
					continue
				}
				if out := version.String(); raw != out {
					t.Errorf("test failed: expected %q, got %q", raw, out)
				}
			}
		}
	}
}

func TestInvalidStringVersion(t *testing.T) {
	if _, err := Parse("not-a-version-!!!"); err == nil {
		t.Fatal("expected malformed input to fail parsing")
	}
}
