// Package timecode converts between human time labels ("MM:SS", "HH:MM:SS",
// optionally bracketed) and offsets in seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is returned for any label that does not encode a valid timestamp.
var ErrParse = fmt.Errorf("invalid timestamp label")

// Parse converts a time label into a non-negative offset in seconds.
//
// Accepts "MM:SS" and "HH:MM:SS", with surrounding whitespace and square
// brackets stripped. Any other shape, or any group that is not an integer,
// yields [ErrParse].
func Parse(label string) (int, error) {
	clean := strings.TrimSpace(stripBrackets(label))
	if clean == "" {
		return 0, fmt.Errorf("%w: empty label", ErrParse)
	}

	parts := strings.Split(clean, ":")
	switch len(parts) {
	case 2:
		minutes, err := parseGroup(parts[0])
		if err != nil {
			return 0, err
		}
		seconds, err := parseGroup(parts[1])
		if err != nil {
			return 0, err
		}
		return minutes*60 + seconds, nil
	case 3:
		hours, err := parseGroup(parts[0])
		if err != nil {
			return 0, err
		}
		minutes, err := parseGroup(parts[1])
		if err != nil {
			return 0, err
		}
		seconds, err := parseGroup(parts[2])
		if err != nil {
			return 0, err
		}
		return hours*3600 + minutes*60 + seconds, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrParse, label)
	}
}

// FirstComponent splits a range label on the first "-" and parses the left
// side. Used when a label encodes a span such as "[00:00]-[05:30]" or
// "00:00 - 05:30".
func FirstComponent(rangeLabel string) (int, error) {
	left, _, _ := strings.Cut(rangeLabel, "-")
	return Parse(left)
}

// Format renders a non-negative offset in seconds as "MM:SS", or "HH:MM:SS"
// once the offset reaches an hour.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func stripBrackets(label string) string {
	return strings.NewReplacer("[", "", "]", "").Replace(label)
}

// parseGroup parses one numeric group of a label, rejecting signs so a
// negative group can never produce a negative offset.
func parseGroup(group string) (int, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return 0, fmt.Errorf("%w: empty group", ErrParse)
	}
	n, err := strconv.Atoi(group)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrParse, group)
	}
	return n, nil
}
