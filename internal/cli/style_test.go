package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictText(t *testing.T) {
	assert.Contains(t, Verdict(true), "HIT")
	assert.Contains(t, Verdict(false), "MISS")
}

func TestErrorsOneLinePerMessage(t *testing.T) {
	out := Errors([]string{"x is required", "r must be positive"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "x is required")
	assert.Contains(t, lines[1], "r must be positive")
}

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
