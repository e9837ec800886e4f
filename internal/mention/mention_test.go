package mention

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret int
		query string
		ok    bool
	}{
		{"bare at", "cc @", 4, "", true},
		{"partial word", "agree with @che", 15, "che", true},
		{"start of text", "@ok", 3, "ok", true},
		{"after paren", "(@pa", 4, "pa", true},
		{"space after word", "@chen said", 10, "", false},
		{"email", "mail bob@host", 13, "", false},
		{"no at", "hello", 5, "", false},
		{"caret mid word", "@chen", 3, "ch", true},
		{"caret out of range", "@x", 9, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Detect(tt.text, tt.caret)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.query, m.Query)
				assert.Equal(t, tt.caret, m.End)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Dr. Alvarez", "Dr. Chen", "Dr. Okafor", "Dr. Patel"}

	assert.Equal(t, []string{"Dr. Chen"}, Suggest("ch", candidates))
	assert.Equal(t, candidates, Suggest("dr", candidates))
	assert.Equal(t, candidates, Suggest("", candidates))
	assert.Empty(t, Suggest("zz", candidates))
}

func TestInsert(t *testing.T) {
	text := "agree with @che about the biopsy"
	m, ok := Detect(text, 15)
	require.True(t, ok)

	out, caret := Insert(text, m, "Dr. Chen")
	assert.Equal(t, "agree with @Dr. Chen  about the biopsy", out)
	assert.Equal(t, len("agree with @Dr. Chen "), caret)
}
