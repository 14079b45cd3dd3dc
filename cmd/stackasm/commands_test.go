package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stackasm"
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

func writeUnit(t *testing.T) string {
	t.Helper()
	els := instr.NewLabel()
	p := instr.NewProgram(op.Modern)
	p.Meta.Name = "main"
	p.Append(
		instr.MustNamed(op.Modern, "LOAD_NAME", instr.Name("x")),
		instr.MustNamed(op.Modern, "POP_JUMP_IF_FALSE", els),
		instr.MustNamed(op.Modern, "RETURN_CONST", instr.Const{Value: 1}),
		els,
		instr.MustNamed(op.Modern, "RETURN_CONST", instr.Const{Value: 2}),
	)
	code, err := stackasm.Assemble(p)
	require.NoError(t, err)
	data, err := bytecode.Marshal(code)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "main.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer func() { color.NoColor = false }()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDisCommand(t *testing.T) {
	out, err := run(t, "dis", writeUnit(t))
	require.NoError(t, err)
	require.Contains(t, out, "main (modern, stack 1, flags 0)")
	require.Contains(t, out, "POP_JUMP_IF_FALSE")
	require.Contains(t, out, "to 6")
}

func TestGraphCommand(t *testing.T) {
	out, err := run(t, "graph", writeUnit(t))
	require.NoError(t, err)
	require.Contains(t, out, "graph (modern, 3 blocks)")
	require.Contains(t, out, "POP_JUMP_IF_FALSE block 2")
}

func TestStatsCommand(t *testing.T) {
	out, err := run(t, "stats", writeUnit(t))
	require.NoError(t, err)
	require.Equal(t, "main: 4 instructions, 0 prefixes, 8 bytes, 2 constants, 1 names, 0 exception entries, stack 1\n", out)
}

func TestReassembleCommand(t *testing.T) {
	path := writeUnit(t)
	target := filepath.Join(t.TempDir(), "out.json")
	out, err := run(t, "reassemble", path, "-o", target)
	require.NoError(t, err)
	require.Equal(t, "main: identical\n", out)

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	require.JSONEq(t, string(original), string(written))
}

func TestReassembleWithConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "stackasm.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level = \"error\"\nmax_passes = 4\n"), 0o644))
	out, err := run(t, "--config", cfg, "reassemble", writeUnit(t))
	require.NoError(t, err)
	require.Contains(t, out, "identical")

	require.NoError(t, os.WriteFile(cfg, []byte("format = \"future\"\n"), 0o644))
	_, err = run(t, "--config", cfg, "reassemble", writeUnit(t))
	require.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "dis", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
