// Package validate provides input validation for the scoring API's
// free-form fields: kingdom names, governor IDs, playstyle and perk tags.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors.
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Character count, not byte count; kingdom names can be CJK.
	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}
	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// tagPattern restricts playstyle and perk tags to lowercase slugs.
var tagPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// governorIDPattern allows the alphanumeric governor identifiers the game
// exports, with optional dashes and underscores.
var governorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Tag validates a playstyle or perk tag: a lowercase slug up to 40 chars.
func Tag(s string) (string, error) {
	return String(s, StringConstraints{
		MinLength:      1,
		MaxLength:      40,
		AllowedPattern: tagPattern,
		TrimSpace:      true,
	})
}

// GovernorID validates a governor identifier.
func GovernorID(s string) (string, error) {
	return String(s, StringConstraints{
		MinLength:      1,
		MaxLength:      64,
		AllowedPattern: governorIDPattern,
		TrimSpace:      true,
	})
}

// KingdomName validates an optional kingdom display name.
func KingdomName(s string) (string, error) {
	return String(s, StringConstraints{
		MaxLength:  80,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// Tags validates every tag in the slice and returns the cleaned list.
// The first invalid tag fails the whole list.
func Tags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag, err := Tag(raw)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", raw, err)
		}
		out = append(out, tag)
	}
	return out, nil
}
