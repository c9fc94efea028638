package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAnyEscapesWildcards(t *testing.T) {
	tests := []struct {
		term     string
		expected string
	}{
		{term: "ada", expected: "%ada%"},
		{term: "  ada ", expected: "%ada%"},
		{term: "50%", expected: `%50\%%`},
		{term: "a_b", expected: `%a\_b%`},
		{term: `c:\tmp`, expected: `%c:\\tmp%`},
	}

	for _, tt := range tests {
		sql, args, err := searchAny(tt.term, "u.full_name", "u.email").ToSql()
		require.NoError(t, err)
		assert.Equal(t, "(u.full_name ILIKE ? OR u.email ILIKE ?)", sql)
		assert.Equal(t, []interface{}{tt.expected, tt.expected}, args, tt.term)
	}
}
