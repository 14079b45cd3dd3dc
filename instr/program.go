package instr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Program is a flat list of instructions, labels and region markers plus
// the side tables and metadata of the unit it describes. Consts and Names
// seed the assembler's tables so existing indices are preserved.
type Program struct {
	Profile  *op.Profile
	Meta     bytecode.Meta
	Consts   []any
	Names    []string
	Elements []Element
}

// NewProgram returns an empty program for the given profile.
func NewProgram(p *op.Profile) *Program {
	if p == nil {
		p = op.Default
	}
	return &Program{Profile: p}
}

// Append adds elements to the end of the program.
func (p *Program) Append(elems ...Element) {
	p.Elements = append(p.Elements, elems...)
}

// Emit creates the named instruction and appends it.
func (p *Program) Emit(name string, arg Operand) (*Instr, error) {
	i, err := Named(p.Profile, name, arg)
	if err != nil {
		return nil, err
	}
	p.Elements = append(p.Elements, i)
	return i, nil
}

// Instructions returns the instructions of the program in order.
func (p *Program) Instructions() []*Instr {
	var out []*Instr
	for _, e := range p.Elements {
		if i, ok := e.(*Instr); ok {
			out = append(out, i)
		}
	}
	return out
}

// Clone returns a copy of the program sharing its elements.
func (p *Program) Clone() *Program {
	c := *p
	c.Meta = p.Meta.Clone()
	c.Consts = append([]any(nil), p.Consts...)
	c.Names = append([]string(nil), p.Names...)
	c.Elements = append([]Element(nil), p.Elements...)
	return &c
}

// Validate checks that every instruction belongs to the program's profile,
// every label is defined once, every jump and region targets a defined label
// and that region markers are balanced. All problems are reported together.
func (p *Program) Validate() error {
	if p.Profile == nil {
		return errz.Errorf(errz.ErrMalformedInstruction, "program has no format profile")
	}
	var result *multierror.Error

	defined := map[*Label]bool{}
	for idx, e := range p.Elements {
		if l, ok := e.(*Label); ok {
			if defined[l] {
				result = multierror.Append(result,
					errz.Errorf(errz.ErrLabelResolution, "label defined twice (element %d)", idx))
			}
			defined[l] = true
		}
	}

	checkTarget := func(idx int, what string, t Target) {
		l, ok := t.(*Label)
		switch {
		case !ok:
			result = multierror.Append(result,
				errz.Errorf(errz.ErrLabelResolution, "%s at element %d targets %T, not a label", what, idx, t))
		case !defined[l]:
			result = multierror.Append(result,
				errz.Errorf(errz.ErrLabelResolution, "%s at element %d targets an undefined label", what, idx))
		}
	}

	var open []*TryBegin
	seen := map[*TryBegin]bool{}
	for idx, e := range p.Elements {
		switch e := e.(type) {
		case *Instr:
			if info, ok := p.Profile.Info(e.Op()); !ok || info != e.info {
				result = multierror.Append(result,
					errz.Errorf(errz.ErrMalformedInstruction, "%s at element %d is not a %s instruction", e.Name(), idx, p.Profile.Name))
				continue
			}
			if e.HasJump() {
				checkTarget(idx, e.Name(), e.Target())
			}
		case *TryBegin:
			if seen[e] {
				result = multierror.Append(result,
					errz.Errorf(errz.ErrRegionImbalance, "region at element %d opened twice", idx))
			}
			seen[e] = true
			open = append(open, e)
			checkTarget(idx, "region", e.Target)
		case *TryEnd:
			if len(open) == 0 || open[len(open)-1] != e.Entry {
				result = multierror.Append(result,
					errz.Errorf(errz.ErrRegionImbalance, "region end at element %d does not close the innermost region", idx))
				continue
			}
			open = open[:len(open)-1]
		case *Label:
		case nil:
			result = multierror.Append(result,
				errz.Errorf(errz.ErrMalformedInstruction, "nil element at %d", idx))
		default:
			result = multierror.Append(result,
				errz.Errorf(errz.ErrMalformedInstruction, "unexpected element %T at %d", e, idx))
		}
	}
	if len(open) > 0 {
		result = multierror.Append(result,
			errz.Errorf(errz.ErrRegionImbalance, "%d region(s) left open", len(open)))
	}
	return result.ErrorOrNil()
}

// String returns a listing of the program with generated label names.
func (p *Program) String() string {
	return Format(p.Elements)
}

// Format renders elements one per line, naming labels and regions in order
// of first appearance.
func Format(elems []Element) string {
	labels := map[Target]string{}
	regions := map[*TryBegin]string{}
	name := func(t Target) string {
		if n, ok := labels[t]; ok {
			return n
		}
		n := fmt.Sprintf("L%d", len(labels)+1)
		labels[t] = n
		return n
	}
	region := func(tb *TryBegin) string {
		if n, ok := regions[tb]; ok {
			return n
		}
		n := fmt.Sprintf("T%d", len(regions)+1)
		regions[tb] = n
		return n
	}
	var out []byte
	for _, e := range elems {
		var line string
		switch e := e.(type) {
		case *Label:
			line = name(e) + ":"
		case *Instr:
			if t := e.Target(); t != nil {
				line = "    " + e.Name() + " " + name(t)
			} else {
				line = "    " + e.String()
			}
		case *TryBegin:
			line = fmt.Sprintf("    TryBegin %s -> %s lasti=%t", region(e), name(e.Target), e.PushLasti)
		case *TryEnd:
			line = "    TryEnd " + region(e.Entry)
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return string(out)
}
