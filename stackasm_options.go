package stackasm

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stackasm/assembler"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Option configures an assembly.
type Option func(*options)

type options struct {
	format    string
	maxPasses int
	logger    *zerolog.Logger
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) assembler() (*assembler.Assembler, error) {
	var opts []assembler.Option
	if o.format != "" {
		p, err := op.ProfileByName(o.format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assembler.WithProfile(p))
	}
	if o.maxPasses > 0 {
		opts = append(opts, assembler.WithMaxPasses(o.maxPasses))
	}
	if o.logger != nil {
		opts = append(opts, assembler.WithLogger(*o.logger))
	}
	return assembler.New(opts...), nil
}

// WithFormat names the format ("modern" or "legacy") used for programs that
// do not carry a profile of their own.
func WithFormat(name string) Option {
	return func(o *options) {
		o.format = name
	}
}

// WithMaxPasses bounds the number of branch relaxation passes. Values below
// one keep the default of 10.
func WithMaxPasses(n int) Option {
	return func(o *options) {
		o.maxPasses = n
	}
}

// WithLogger sets the logger that receives assembly events. By default
// nothing is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}
