package options

import (
	"log/slog"
)

// DefaultOptions are conservative: few suggestions per anchor, a hard cap on
// phonetic combinations and a bounded number of passes.
var DefaultOptions = CorrectorOptions{
	MaxSuggestions:      5,
	MaxIterations:       8,
	MaxTargets:          0,
	PhoneticComboLimit:  4096,
	PhoneticMaxTokens:   3,
	DecentRatio:         10,
	Workers:             0,
	CustomWordFrequency: 1_000_000_000,
}

type CorrectorOptions struct {
	MaxSuggestions      int     `yaml:"max_suggestions"`       // candidates kept per anchor n-gram
	MaxIterations       int     `yaml:"max_iterations"`        // applied changes per Correct call; 1 = single shot
	MaxTargets          int     `yaml:"max_targets"`           // rarest n-grams examined per pass; 0 = all
	PhoneticComboLimit  int     `yaml:"phonetic_combo_limit"`  // cross-product combinations explored per anchor
	PhoneticMaxTokens   int     `yaml:"phonetic_max_tokens"`   // longest candidate eligible for a phonetic match
	DecentRatio         float64 `yaml:"decent_ratio"`          // frequency gain that makes a candidate "decent"
	Workers             int     `yaml:"workers"`               // parallel anchors in the merger; 0 = GOMAXPROCS
	CustomWordFrequency int64   `yaml:"custom_word_frequency"` // frequency given to custom dictionary words

	Logger *slog.Logger `yaml:"-"`
}

type Options interface {
	Apply(options *CorrectorOptions)
}

type FuncConfig struct {
	ops func(options *CorrectorOptions)
}

func (w FuncConfig) Apply(conf *CorrectorOptions) {
	w.ops(conf)
}

func NewFuncOption(f func(options *CorrectorOptions)) *FuncConfig {
	return &FuncConfig{ops: f}
}

// Resolve applies opts over DefaultOptions.
func Resolve(opts ...Options) CorrectorOptions {
	o := DefaultOptions
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

func WithMaxSuggestions(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxSuggestions = n
	})
}

func WithMaxIterations(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxIterations = n
	})
}

// WithSingleShot stops after one applied change per call.
func WithSingleShot() Options {
	return WithMaxIterations(1)
}

func WithMaxTargets(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.MaxTargets = n
	})
}

func WithPhoneticComboLimit(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.PhoneticComboLimit = n
	})
}

func WithPhoneticMaxTokens(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.PhoneticMaxTokens = n
	})
}

func WithDecentRatio(r float64) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.DecentRatio = r
	})
}

func WithWorkers(n int) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.Workers = n
	})
}

func WithCustomWordFrequency(f int64) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.CustomWordFrequency = f
	})
}

// WithLogger sets the logger for the corrector. Without it nothing is logged.
func WithLogger(l *slog.Logger) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		options.Logger = l
	})
}

// WithConfig replaces every tunable with c, keeping the logger already set.
func WithConfig(c CorrectorOptions) Options {
	return NewFuncOption(func(options *CorrectorOptions) {
		logger := options.Logger
		*options = c
		if c.Logger == nil {
			options.Logger = logger
		}
	})
}
