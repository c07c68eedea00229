package utils_test

import (
	"testing"

	"github.com/pseudomuto/minerva/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple identifier", input: "table", expected: `"table"`},
		{name: "empty string", input: "", expected: `""`},
		{name: "embedded double quote is doubled", input: `we"ird`, expected: `"we""ird"`},
		{name: "dot is preserved, not split", input: "trend.hub_node_main_15m", expected: `"trend.hub_node_main_15m"`},
		{name: "already quoted text is re-escaped, not treated specially", input: `"table"`, expected: `"""table"""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteQualifiedName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "unqualified", input: "my_part", expected: `"my_part"`},
		{name: "schema-qualified", input: "trend.my_part", expected: `"trend"."my_part"`},
		{name: "embedded quote in one part", input: `trend.we"ird`, expected: `"trend"."we""ird"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteQualifiedName(tt.input))
		})
	}
}

// Property 6 from the testable-properties list: for inputs containing
// `"` and `.`, the escaping function produces output that parses as a
// single identifier on the server. We can't run a server in this test,
// but we can verify the mechanical invariant that makes that true: every
// embedded double-quote is doubled, and the whole thing is wrapped in
// exactly one pair of quotes.
func TestQuoteIdentifier_EscapingInvariant(t *testing.T) {
	for _, input := range []string{`a"b`, `"""`, `a.b"c`, ``, `plain`} {
		quoted := utils.QuoteIdentifier(input)
		require.True(t, len(quoted) >= 2)
		require.Equal(t, byte('"'), quoted[0])
		require.Equal(t, byte('"'), quoted[len(quoted)-1])

		inner := quoted[1 : len(quoted)-1]
		// Every quote in inner must be part of a doubled pair.
		for i := 0; i < len(inner); i++ {
			if inner[i] == '"' {
				require.Less(t, i+1, len(inner), "trailing unescaped quote")
				require.Equal(t, byte('"'), inner[i+1])
				i++
			}
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple value", input: "80", expected: `'80'`},
		{name: "embedded single quote is doubled", input: "O'Brien", expected: `'O''Brien'`},
		{name: "empty string", input: "", expected: `''`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteLiteral(tt.input))
		})
	}
}
