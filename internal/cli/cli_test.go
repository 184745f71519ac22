package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countries = "testdata/countries.yml"

// run executes the CLI and returns stdout, stderr and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// decode parses a JSON response.
func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func names(t *testing.T, data any) []string {
	t.Helper()
	rows, ok := data.([]any)
	require.True(t, ok, "data is %T", data)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.(map[string]any)["name"].(string)
	}
	return out
}

func TestInvalidFormat(t *testing.T) {
	_, stderr, code := run(t, "fields", countries, "--format", "xml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := run(t, "frobnicate")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "Error:")
}

func TestFields(t *testing.T) {
	stdout, _, code := run(t, "fields", countries)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "id\nactive\ncode\nname\npopulation\n", stdout)

	stdout, _, code = run(t, "fields", countries, "--format", "json")
	require.Equal(t, ExitSuccess, code)
	resp := decode(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{
		"type":    "Country",
		"columns": []any{"id", "active", "code", "name", "population"},
	}, resp.Data)
}

func TestQueryTable(t *testing.T) {
	stdout, _, code := run(t, "query", countries)
	require.Equal(t, ExitSuccess, code)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "query_table", []byte(stdout))
}

func TestQueryConditions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"count", []string{"--where", "active=true", "--count"}, "2\n"},
		{"not null", []string{"--not", "code=null", "--ids"}, "1\n3\n"},
		{"list value", []string{"--where", "code=[CA, PE]", "--pluck", "name"}, "Canada\nPeru\n"},
		{"number", []string{"--where", "population=126", "--pluck", "name"}, "Mexico\n"},
		{"order", []string{"--order", "population desc", "--ids"}, "2\n1\n3\n"},
		{"offset and limit", []string{"--order", "name", "--offset", "1", "--limit", "1", "--pluck", "name"}, "Mexico\n"},
		{"tuples", []string{"--where", "id=1", "--pluck", "name,code"}, "[\"Canada\",\"CA\"]\n"},
		{"missing value", []string{"--where", "id=2", "--pluck", "code"}, "-\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := run(t, append([]string{"query", countries}, tt.args...)...)
			require.Equal(t, ExitSuccess, code, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestQueryJSON(t *testing.T) {
	stdout, _, code := run(t, "query", countries, "--order", "name desc", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	resp := decode(t, stdout)
	assert.Equal(t, []string{"Peru", "Mexico", "Canada"}, names(t, resp.Data))

	stdout, _, code = run(t, "query", countries, "--where", "active=false", "--count", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, map[string]any{"count": float64(1)}, decode(t, stdout).Data)
}

func TestQueryFirstAndLast(t *testing.T) {
	stdout, _, code := run(t, "query", countries, "--where", "active=true", "--last", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Peru"}, names(t, decode(t, stdout).Data))

	_, stderr, code := run(t, "query", countries, "--where", "code=XX", "--first")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E020]: no Country matches")
}

func TestQueryErrors(t *testing.T) {
	_, stderr, code := run(t, "query", countries, "--pluck", "capital")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "E014")

	_, stderr, code = run(t, "query", countries, "--where", "active")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `condition "active" must be field=value`)

	_, _, code = run(t, "query", countries, "--count", "--first")
	assert.Equal(t, ExitCommandError, code)
}

func TestQueryErrorAsJSON(t *testing.T) {
	stdout, stderr, code := run(t, "query", countries, "--pluck", "capital", "--format", "json")
	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, stderr)

	resp := decode(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnknownField, resp.Error.Code)
}

func TestFind(t *testing.T) {
	stdout, _, code := run(t, "find", countries, "find_by_code", "PE", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Peru"}, names(t, decode(t, stdout).Data))

	stdout, _, code = run(t, "find", countries, "findAllByActive", "true", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Canada", "Peru"}, names(t, decode(t, stdout).Data))

	stdout, _, code = run(t, "find", countries, "find_all_by_active", "true", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Canada", "Peru"}, names(t, decode(t, stdout).Data))

	stdout, _, code = run(t, "find", countries, "find_by_population", "126", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Mexico"}, names(t, decode(t, stdout).Data))

	stdout, _, code = run(t, "find", countries, "2", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Mexico"}, names(t, decode(t, stdout).Data))
}

func TestFindMisses(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    int
		errCode string
	}{
		{"finder miss", []string{"find_by_code", "XX"}, ExitFailure, ErrCodeNoRecord},
		{"bang finder miss", []string{"find_by_code!", "XX"}, ExitFailure, ErrCodeNoRecord},
		{"id miss", []string{"99"}, ExitFailure, ErrCodeNoRecord},
		{"unknown finder", []string{"find_by_capital", "Lima"}, ExitCommandError, ErrCodeNoMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, append([]string{"find", countries}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "Error ["+tt.errCode+"]")
		})
	}
}

func TestScope(t *testing.T) {
	stdout, stderr, code := run(t, "scope", countries, "big",
		"--define", "big=population > 35", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"Canada", "Mexico"}, names(t, decode(t, stdout).Data))

	stdout, stderr, code = run(t, "scope", countries, "larger", "100",
		"--define", "larger=population > args[0]", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"Mexico"}, names(t, decode(t, stdout).Data))

	stdout, stderr, code = run(t, "scope", countries, "on", "--engine", "cel",
		"--define", "on=active == true", "--order", "name desc", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"Peru", "Canada"}, names(t, decode(t, stdout).Data))
}

func TestScopeErrors(t *testing.T) {
	_, stderr, code := run(t, "scope", countries, "big")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "Error [E021]: undefined scope 'big' for Country")

	_, stderr, code = run(t, "scope", countries, "big", "--define", "population > 35")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "must be name=expression")

	_, stderr, code = run(t, "scope", countries, "big", "--define", "big=population >")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "Error [E022]: cannot define scope big")

	_, _, code = run(t, "scope", countries, "big", "--engine", "lua", "--define", "big=true")
	assert.Equal(t, ExitCommandError, code)
}

func TestValidate(t *testing.T) {
	stdout, _, code := run(t, "validate", countries)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "✓ testdata/countries.yml: 3 Country record(s), 5 column(s)\n", stdout)

	stdout, _, code = run(t, "validate", countries, "--type", "Nation", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	data := decode(t, stdout).Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "Nation", data["type"])
	assert.Equal(t, float64(3), data["records"])
	assert.NotContains(t, data, "generated")
}

func TestValidateAssignsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.yml")
	require.NoError(t, os.WriteFile(path, []byte("- {name: red}\n- {id: 7, name: blue}\n- {name: green}\n"), 0644))

	stdout, stderr, code := run(t, "validate", path, "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	data := decode(t, stdout).Data.(map[string]any)
	assert.Len(t, data["generated"], 2)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    int
		errCode string
	}{
		{"missing file", []string{"testdata/nope.yml"}, ExitCommandError, ErrCodeNotFound},
		{"malformed", []string{"testdata/broken.yml"}, ExitCommandError, ErrCodeDecode},
		{"duplicate ids", []string{"testdata/duplicates.yml"}, ExitFailure, ErrCodeDuplicateID},
		{"format mismatch", []string{countries, "--input-format", "json"}, ExitCommandError, ErrCodeFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, append([]string{"validate"}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "Error ["+tt.errCode+"]")
		})
	}
}

func TestExportThenQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "world.db")

	stdout, stderr, code := run(t, "export", countries, db)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "exported 3 Country record(s)")
	assert.Contains(t, stdout, "(table countries)")

	stdout, stderr, code = run(t, "query", db, "--where", "active=true", "--ids")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "1\n3\n", stdout)

	stdout, _, code = run(t, "fields", db, "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Country", decode(t, stdout).Data.(map[string]any)["type"])
}

func TestExportNamedTable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "world.db")

	stdout, stderr, code := run(t, "export", countries, db, "--out-table", "nations", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	data := decode(t, stdout).Data.(map[string]any)
	assert.Equal(t, "nations", data["table"])
	assert.Equal(t, float64(3), data["records"])

	stdout, stderr, code = run(t, "find", db, "find_by_name", "Peru", "--table", "nations", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"Peru"}, names(t, decode(t, stdout).Data))
}
