package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	seqRe   = regexp.MustCompile(`[-\s#](\d+)\s*$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// ParsedName holds the structured data parsed from a resource's display name.
// Kind is the name with the trailing unit number stripped ("Suite VIP-3"
// yields Kind "Suite VIP", Seq 3), so catalogs can be ordered by kind and
// unit number instead of raw string comparison.
type ParsedName struct {
	Kind string
	Seq  int
}

// ParseName extracts the kind and unit sequence number from a raw resource
// display name. Names without a trailing number keep Seq 0.
func ParseName(raw string) (ParsedName, error) {
	// Treat '#' as a separator so "Suite #3" and "Suite-3" parse alike.
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "#", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	if s == "" {
		return ParsedName{}, fmt.Errorf("empty resource name: %q", raw)
	}

	seq := 0
	kind := s
	if loc := seqRe.FindStringSubmatchIndex(s); loc != nil {
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			seq = n
			kind = strings.TrimSpace(s[:loc[0]])
		}
	}

	if kind == "" {
		// A purely numeric name ("12") is a unit with no kind prefix.
		kind = s
		seq = 0
	}

	return ParsedName{Kind: kind, Seq: seq}, nil
}
