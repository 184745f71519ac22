package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "failed"))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("unknown flag")))
}

func TestFailReportsOnce(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	err := f.Fail(ExitFailure, ErrCodeNoRecord, "not found", errors.New("couldn't find Country with 'id'=9"))
	assert.Equal(t, "E020: not found: couldn't find Country with 'id'=9", err.Error())
	assert.Empty(t, out.String())
	assert.Equal(t, "Error [E020]: not found: couldn't find Country with 'id'=9\n", errOut.String())

	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.True(t, exitErr.reported)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"Peru", "Peru"},
		{42, "42"},
		{2.5, "2.5"},
		{false, "false"},
		{[]any{"a", 1}, `["a",1]`},
		{map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in), "%v", tt.in)
	}
}

func TestVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}
	f.VerboseLog("hidden")
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("loaded %d", 3)
	assert.Equal(t, "loaded 3\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestParseScalar(t *testing.T) {
	assert.Equal(t, 3, parseScalar("3"))
	assert.Equal(t, true, parseScalar("true"))
	assert.Nil(t, parseScalar("null"))
	assert.Equal(t, []any{"CA", "PE"}, parseScalar("[CA, PE]"))
	assert.Equal(t, "a: b", parseScalar("a: b"))
	assert.Equal(t, "Canada", parseScalar("Canada"))
}
