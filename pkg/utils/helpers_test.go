package utils

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/exp/rand"
)

func TestGenerateRandomString(t *testing.T) {
	for _, n := range []int{0, 1, 12, 32} {
		s := GenerateRandomString(n)
		if len(s) != n {
			t.Errorf("GenerateRandomString(%d) has length %d", n, len(s))
		}
	}
}

func TestGenerateSecret(t *testing.T) {
	for _, n := range []int{0, 1, 16, 32} {
		s, err := GenerateSecret(n)
		if err != nil {
			t.Fatalf("GenerateSecret(%d) returned %v", n, err)
		}
		if len(s) != n {
			t.Errorf("GenerateSecret(%d) has length %d", n, len(s))
		}
		if strings.Trim(s, alphanumeric) != "" {
			t.Errorf("GenerateSecret(%d) = %q contains non-alphanumeric characters", n, s)
		}
	}
}

func TestGenerateSecretIgnoresMathRandSeed(t *testing.T) {
	rand.Seed(42)
	a, err := GenerateSecret(32)
	if err != nil {
		t.Fatal(err)
	}

	rand.Seed(42)
	b, err := GenerateSecret(32)
	if err != nil {
		t.Fatal(err)
	}

	if a == b {
		t.Errorf("GenerateSecret repeated %q under the same math/rand seed", a)
	}
}

func TestFuzzyPatterns(t *testing.T) {
	testCases := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"   ", nil},
		{"Bolt", []string{"%bolt%", "%b%o%l%t%", "%bo%lt%", "bolt%", "%bolt"}},
		{"ab", []string{"%ab%", "%a%b%", "ab%", "%ab"}},
		{"x", []string{"%x%", "%x%%", "x%", "%x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			actual := FuzzyPatterns(tc.input)
			if !reflect.DeepEqual(actual, tc.expected) {
				t.Errorf("FuzzyPatterns(%q) = %v; want %v", tc.input, actual, tc.expected)
			}
		})
	}
}

func TestFuzzyPatternsMultipleWords(t *testing.T) {
	actual := FuzzyPatterns("m8 bolt")
	if len(actual) == 0 || actual[0] != "%m8%" {
		t.Fatalf("unexpected patterns %v", actual)
	}
	found := false
	for _, p := range actual {
		if p == "%bolt%" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %%bolt%% in %v", actual)
	}
}
