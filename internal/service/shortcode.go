package service

import (
	"net/url"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortCodeAlphabet holds the characters used for generated codes. Custom
// codes may additionally contain '-' and '_'.
const shortCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const maxTargetURLLength = 2048

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// generateShortCode returns a random alphanumeric code of the given length.
func generateShortCode(length int) (string, error) {
	return gonanoid.Generate(shortCodeAlphabet, length)
}

// validShortCode reports whether code matches the short code grammar.
func validShortCode(code string) bool {
	return shortCodePattern.MatchString(code)
}

// validTargetURL reports whether target is an absolute http or https URL of
// acceptable length.
func validTargetURL(target string) bool {
	if target == "" || len(target) > maxTargetURLLength {
		return false
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// ReservedCodes is the set of short codes that would shadow application
// routes. Lookups are case-insensitive.
type ReservedCodes map[string]struct{}

// NewReservedCodes builds a reserved set from the given paths.
func NewReservedCodes(paths []string) ReservedCodes {
	set := make(ReservedCodes, len(paths))
	for _, path := range paths {
		set[strings.ToLower(path)] = struct{}{}
	}

	return set
}

// Contains reports whether code is reserved.
func (r ReservedCodes) Contains(code string) bool {
	_, ok := r[strings.ToLower(code)]
	return ok
}
