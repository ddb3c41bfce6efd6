package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/op"
)

// execute runs the CLI with the given arguments and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeUnit saves a unit equivalent to
//
//	func bump() { ++x }
//	x = 5
//	bump()
//	x
func writeUnit(t *testing.T) string {
	t.Helper()
	body := dis.NewListing(bytecode.CodeParams{Name: "bump"})
	body.At(1, 15).Emit(op.LoadGlobal, 0).Emit(op.UnaryPositive).Emit(op.UnaryPositive).
		Emit(op.ReturnValue)
	bodyCode, err := dis.Assemble(body)
	require.NoError(t, err)
	bump := bytecode.NewFunction(bytecode.FunctionParams{Name: "bump", Code: bodyCode})

	main := dis.NewListing(bytecode.CodeParams{
		GlobalCount: 1,
		GlobalNames: []string{"x"},
		Children:    []*bytecode.Code{bodyCode},
	})
	main.At(2, 1).Emit(op.LoadConst, int64(5)).Emit(op.StoreGlobal, 0)
	main.At(3, 1).Emit(op.LoadConst, bump).Emit(op.Call, 0).Emit(op.PopTop)
	main.At(4, 1).Emit(op.LoadGlobal, 0)
	code, err := dis.Assemble(main)
	require.NoError(t, err)

	data, err := bytecode.Marshal(code)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "unit.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunCmd(t *testing.T) {
	path := writeUnit(t)

	stdout, _, err := execute(t, "run", path)
	require.NoError(t, err)
	require.Equal(t, "5\n", stdout)

	stdout, _, err = execute(t, "run", "--enable", path)
	require.NoError(t, err)
	require.Equal(t, "6\n", stdout)
}

func TestRunCmdTrace(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "--enable", "--trace", writeUnit(t))
	require.NoError(t, err)
	require.Equal(t, "6\n", stdout)
	require.Contains(t, stderr, "call bump/0")
	require.Contains(t, stderr, "STORE_GLOBAL")
	require.Contains(t, stderr, "2:1")
}

func TestRewriteCmd(t *testing.T) {
	path := writeUnit(t)
	out := filepath.Join(t.TempDir(), "out.json")

	_, stderr, err := execute(t, "rewrite", path, "-o", out, "--report")
	require.NoError(t, err)

	var report struct {
		Units []struct {
			Name    string `json:"name"`
			Applied []any  `json:"applied"`
		} `json:"units"`
	}
	require.NoError(t, json.Unmarshal([]byte(stderr), &report))
	require.Len(t, report.Units, 2)
	require.Equal(t, "bump", report.Units[0].Name)
	require.Len(t, report.Units[0].Applied, 1)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	code, err := bytecode.Unmarshal(data)
	require.NoError(t, err)
	require.True(t, code.Flags().Has(bytecode.FlagIncrements))

	// The rewritten unit runs as-is and is not rewritten twice
	stdout, _, err := execute(t, "run", "--enable", out)
	require.NoError(t, err)
	require.Equal(t, "6\n", stdout)
}

func TestRewriteCmdStdout(t *testing.T) {
	stdout, _, err := execute(t, "rewrite", writeUnit(t))
	require.NoError(t, err)
	code, err := bytecode.Unmarshal([]byte(stdout))
	require.NoError(t, err)
	require.True(t, code.Flags().Has(bytecode.FlagIncrements))
}

func TestDisCmd(t *testing.T) {
	path := writeUnit(t)

	stdout, _, err := execute(t, "dis", path)
	require.NoError(t, err)
	require.Contains(t, stdout, "OPCODE")
	require.Contains(t, stdout, "STORE_GLOBAL")
	require.NotContains(t, stdout, "UNARY_POSITIVE")

	stdout, _, err = execute(t, "dis", "--func", "bump", path)
	require.NoError(t, err)
	require.Contains(t, stdout, "UNARY_POSITIVE")

	stdout, _, err = execute(t, "dis", "--enable", "--func", "bump", path)
	require.NoError(t, err)
	require.NotContains(t, stdout, "UNARY_POSITIVE")
	require.Contains(t, stdout, "BINARY_OP")

	_, _, err = execute(t, "dis", "--func", "missing", path)
	require.EqualError(t, err, `function "missing" not found`)

	_, _, err = execute(t, "dis", "--func", "bmp", path)
	require.EqualError(t, err, `function "bmp" not found (did you mean bump?)`)
}

func TestHostFlag(t *testing.T) {
	path := writeUnit(t)

	stdout, _, err := execute(t, "--host", "legacy", "run", "--enable", path)
	require.NoError(t, err)
	require.Equal(t, "6\n", stdout)

	_, _, err = execute(t, "--host", "nope", "run", path)
	require.ErrorContains(t, err, `unknown host "nope" (expected one of legacy, standard, or a .toml file)`)

	_, _, err = execute(t, "--host", "legasy", "run", path)
	require.EqualError(t, err, `unknown host "legasy" (did you mean legacy?)`)

	profile := filepath.Join(t.TempDir(), "tiny.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`
name = "tiny"
max_rotate = 3
unsupported = ["UNPACK"]
`), 0o644))
	_, _, err = execute(t, "--host", profile, "rewrite", path)
	require.ErrorContains(t, err, `instruction set "tiny" cannot run rewritten code: missing UNPACK`)
}

func TestConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(config, []byte(`host = "nope"`), 0o644))

	_, _, err := execute(t, "--config", config, "run", writeUnit(t))
	require.ErrorContains(t, err, `unknown host "nope"`)

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "run", writeUnit(t))
	require.ErrorContains(t, err, "reading config")
}

func TestEnvironment(t *testing.T) {
	path := writeUnit(t)
	t.Setenv("PLUSPLUS_HOST", "nope")
	_, _, err := execute(t, "run", path)
	require.ErrorContains(t, err, `unknown host "nope"`)
}

func TestLogLevel(t *testing.T) {
	_, stderr, err := execute(t, "--log-level", "info", "rewrite", writeUnit(t))
	require.NoError(t, err)
	require.Contains(t, stderr, "transformed unit tree")

	_, _, err = execute(t, "--log-level", "loud", "rewrite", writeUnit(t))
	require.EqualError(t, err, `invalid log level "loud"`)
}

func TestErrorText(t *testing.T) {
	err := errz.NewStructuredErrorf(errz.ErrSyntax,
		errz.SourceLocation{Line: 1, Column: 3, Source: "x ++"}, nil, "bad increment")
	require.Equal(t, "syntax error: bad increment (1:3)\n | x ++\n |   ^", errorText(fmt.Errorf("rewrite: %w", err)))
	require.Equal(t, "plain", errorText(errors.New("plain")))
}
