package utils

import (
	crand "crypto/rand"
	"strings"
	"time"

	"golang.org/x/exp/rand"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func init() {
	rand.Seed(uint64(time.Now().UnixNano()))
}

// GenerateRandomString is predictable from its seed. Use GenerateSecret for
// keys and passwords.
func GenerateRandomString(limit int) string {
	result := make([]byte, limit)
	for i := range result {
		result[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}

	return string(result)
}

// GenerateSecret returns an alphanumeric string drawn from crypto/rand.
func GenerateSecret(limit int) (string, error) {
	// Bytes at or above this bound would skew the distribution.
	const bound = 256 - 256%len(alphanumeric)

	result := make([]byte, 0, limit)
	buf := make([]byte, limit+limit/4+1)
	for len(result) < limit {
		if _, err := crand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= bound {
				continue
			}
			result = append(result, alphanumeric[int(b)%len(alphanumeric)])
			if len(result) == limit {
				break
			}
		}
	}

	return string(result), nil
}

// FuzzyPatterns expands a search query into SQL LIKE patterns. Every word
// yields a substring match, a scattered-letter match, a split-in-half match
// tolerating an inserted character, and prefix/suffix matches. Duplicates are
// dropped while keeping the first-seen order.
func FuzzyPatterns(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var patterns []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	for _, word := range words {
		runes := []rune(word)
		half := (len(runes) + 1) / 2

		add("%" + word + "%")
		add("%" + strings.Join(strings.Split(word, ""), "%") + "%")
		add("%" + string(runes[:half]) + "%" + string(runes[half:]) + "%")
		add(word + "%")
		add("%" + word)
	}

	return patterns
}
