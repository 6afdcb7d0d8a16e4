package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseName(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedName
		expectErr bool
	}{
		{
			name:     "Hyphenated unit number",
			raw:      "Suite VIP-3",
			expected: ParsedName{Kind: "Suite VIP", Seq: 3},
		},
		{
			name:     "Space separated unit number",
			raw:      "Kennel 12",
			expected: ParsedName{Kind: "Kennel", Seq: 12},
		},
		{
			name:     "Hash style",
			raw:      "Suite #7",
			expected: ParsedName{Kind: "Suite", Seq: 7},
		},
		{
			name:     "Fully hyphenated",
			raw:      "Suite-VIP-1",
			expected: ParsedName{Kind: "Suite-VIP", Seq: 1},
		},
		{
			name:     "No unit number",
			raw:      "Grooming Table",
			expected: ParsedName{Kind: "Grooming Table", Seq: 0},
		},
		{
			name:     "Extra whitespace",
			raw:      "  Training   Area  2 ",
			expected: ParsedName{Kind: "Training Area", Seq: 2},
		},
		{
			name:     "Purely numeric name",
			raw:      "12",
			expected: ParsedName{Kind: "12", Seq: 0},
		},
		{
			name:      "Empty name",
			raw:       "   ",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseName(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}
