package format

import "fmt"

// Quote styles
const (
	QuoteDouble = "double"
	QuoteSingle = "single"
)

// Config represents formatting configuration options. It is read from the
// format section of featurereg.yml.
type Config struct {
	IndentSize    int    `yaml:"indent_size" mapstructure:"indent_size"`
	UseTabs       bool   `yaml:"use_tabs" mapstructure:"use_tabs"`
	Quote         string `yaml:"quote" mapstructure:"quote"`
	TrailingComma bool   `yaml:"trailing_comma" mapstructure:"trailing_comma"`
	// Command is an optional external formatter reading the registry on
	// stdin and writing the formatted result to stdout, such as
	// "npx prettier --stdin-filepath registry.ts"
	Command string `yaml:"command" mapstructure:"command"`
}

// DefaultConfig returns the default formatting configuration
func DefaultConfig() *Config {
	return &Config{
		IndentSize:    4,
		Quote:         QuoteDouble,
		TrailingComma: true,
	}
}

// Validate checks the configuration and fills in defaults for zero values
func (c *Config) Validate() error {
	if c.IndentSize == 0 {
		c.IndentSize = DefaultConfig().IndentSize
	}
	if c.IndentSize < 0 || c.IndentSize > 16 {
		return fmt.Errorf("format.indent_size must be between 1 and 16, got %d", c.IndentSize)
	}

	switch c.Quote {
	case "":
		c.Quote = QuoteDouble
	case QuoteDouble, QuoteSingle:
	default:
		return fmt.Errorf("format.quote must be %q or %q, got %q", QuoteDouble, QuoteSingle, c.Quote)
	}
	return nil
}
