package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/boardkit/pkg/framing"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required"))
	}
	switch c.OutputFormat {
	case OutputAuto, OutputText, OutputMarkdown, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown output mode %q", c.OutputFormat))
	}
	if c.Framing.Width <= 0 || c.Framing.Height <= 0 {
		errs = append(errs, fmt.Errorf("framing size must be positive, got %dx%d", c.Framing.Width, c.Framing.Height))
	}
	if c.Framing.MaxZoom < 1 {
		errs = append(errs, fmt.Errorf("framing.max_zoom must be at least 1, got %g", c.Framing.MaxZoom))
	}
	if _, err := framing.ParseHexColor(c.Framing.Background); err != nil {
		errs = append(errs, fmt.Errorf("framing.background: %w", err))
	}
	return errors.Join(errs...)
}
