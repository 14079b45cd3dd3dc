package dis

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/internal/table"
)

var (
	boldColor    = color.New(color.Bold)
	constColor   = color.New(color.FgYellow)
	stringColor  = color.New(color.FgGreen)
	codeColor    = color.New(color.FgMagenta)
	annotColor   = color.New(color.FgHiCyan)
	lineColor    = color.New(color.Faint)
	targetMarker = ">>"
)

// Print writes a table of the given instructions. Jump destinations are
// marked with ">>" and the line column is only filled where the line
// changes. Colors follow the fatih/color global switch.
func Print(instructions []Instruction, writer io.Writer) {
	targets := map[int]bool{}
	for _, in := range instructions {
		if in.Target >= 0 {
			targets[in.Target] = true
		}
	}
	var rows [][]string
	prevLine := 0
	for _, in := range instructions {
		line := ""
		if in.Line > 0 && in.Line != prevLine {
			line = lineColor.Sprint(in.Line)
			prevLine = in.Line
		}
		mark := ""
		if targets[in.Offset] {
			mark = targetMarker
		}
		arg := ""
		if in.Prefixes > 0 || in.Arg != 0 || in.Annotation != "" {
			arg = fmt.Sprint(in.Arg)
		}
		rows = append(rows, []string{
			line,
			mark,
			fmt.Sprint(in.Offset),
			boldColor.Sprint(in.Name),
			arg,
			annotation(in),
		})
	}
	table.NewTable(writer).
		WithHeader([]string{"LINE", "", "OFFSET", "OPCODE", "ARG", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}

func annotation(in Instruction) string {
	if !in.HasConst {
		if in.Annotation == "" {
			return ""
		}
		return annotColor.Sprint(in.Annotation)
	}
	switch in.Constant.(type) {
	case string, []byte:
		return stringColor.Sprint(in.Annotation)
	case *bytecode.Code:
		return codeColor.Sprint(in.Annotation)
	case int, int64, float64, bool:
		return constColor.Sprint(in.Annotation)
	default:
		return boldColor.Sprint(in.Annotation)
	}
}

// PrintCode decodes code and every code unit nested in its constants and
// prints one table per unit, each preceded by a short header.
func PrintCode(code *bytecode.Code, writer io.Writer) error {
	for i, c := range code.Flatten() {
		instructions, err := Decode(c)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(writer)
		}
		name := c.Name()
		if name == "" {
			name = "<unit>"
		}
		fmt.Fprintf(writer, "%s (%s, stack %d, flags %s)\n",
			boldColor.Sprint(name), c.Format(), c.StackSize(), c.Flags())
		Print(instructions, writer)
		entries, err := c.ExceptionEntries()
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			printExceptionTable(entries, writer)
		}
	}
	return nil
}

func printExceptionTable(entries []bytecode.ExceptionEntry, writer io.Writer) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		lasti := ""
		if e.Lasti {
			lasti = "lasti"
		}
		rows = append(rows, []string{
			fmt.Sprint(e.Start),
			fmt.Sprint(e.Stop),
			fmt.Sprint(e.Target),
			fmt.Sprint(e.Depth),
			lasti,
		})
	}
	table.NewTable(writer).
		WithHeader([]string{"START", "STOP", "TARGET", "DEPTH", ""}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight, table.AlignRight, table.AlignRight, table.AlignRight, table.AlignLeft,
		}).
		WithRows(rows).
		Render()
}
