package assembler

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stackasm/op"
)

// DefaultMaxPasses is the default branch relaxation pass budget.
const DefaultMaxPasses = 10

// Option is a configuration function for an Assembler.
type Option func(*Assembler)

// WithProfile sets the format used for programs that carry no profile.
func WithProfile(p *op.Profile) Option {
	return func(a *Assembler) {
		a.profile = p
	}
}

// WithMaxPasses sets the branch relaxation pass budget.
func WithMaxPasses(n int) Option {
	return func(a *Assembler) {
		a.maxPasses = n
	}
}

// WithLogger sets the logger that receives layout diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}
