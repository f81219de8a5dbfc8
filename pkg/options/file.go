package options

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxFileSize caps the size of a YAML options file.
const MaxFileSize = 64 * 1024

// LoadFile reads a YAML options file. Fields missing from the file keep
// their DefaultOptions values.
func LoadFile(path string) (Options, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("options file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("options file %s is %d bytes, limit %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("options file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML options over DefaultOptions and validates them.
func Parse(data []byte) (Options, error) {
	c := DefaultOptions
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return WithConfig(c), nil
}

// Validate reports every out-of-range field.
func (c CorrectorOptions) Validate() error {
	var errs []error
	if c.MaxSuggestions < 1 {
		errs = append(errs, fmt.Errorf("max_suggestions must be >= 1, got %d", c.MaxSuggestions))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations))
	}
	if c.MaxTargets < 0 {
		errs = append(errs, fmt.Errorf("max_targets must be >= 0, got %d", c.MaxTargets))
	}
	if c.PhoneticComboLimit < 1 {
		errs = append(errs, fmt.Errorf("phonetic_combo_limit must be >= 1, got %d", c.PhoneticComboLimit))
	}
	if c.PhoneticMaxTokens < 0 {
		errs = append(errs, fmt.Errorf("phonetic_max_tokens must be >= 0, got %d", c.PhoneticMaxTokens))
	}
	if c.DecentRatio < 1 {
		errs = append(errs, fmt.Errorf("decent_ratio must be >= 1, got %g", c.DecentRatio))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.CustomWordFrequency < 1 {
		errs = append(errs, fmt.Errorf("custom_word_frequency must be >= 1, got %d", c.CustomWordFrequency))
	}
	return errors.Join(errs...)
}
