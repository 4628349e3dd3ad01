// Package config holds the operator configuration: contact identity for
// the upstream data providers, the default genome build, and the cache
// location. Configuration is explicit and threaded through the components,
// never a process-wide singleton.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// ErrEmailRequired means no contact address is configured. The upstream
// sequence provider's terms of use require one on every request.
var ErrEmailRequired = errors.New("contact email is required, set it with 'varloc config set email <address>'")

var genomeRe = regexp.MustCompile(`^hg[0-9]+$`)

// Config is the operator configuration record.
type Config struct {
	Email    string `mapstructure:"email"`
	Genome   string `mapstructure:"genome"`
	CacheDir string `mapstructure:"cache_dir"`
}

// SetDefaults registers the defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("genome", "hg19")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("cache_dir", filepath.Join(home, ".varloc"))
	}
}

// Load reads the configuration out of a viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants. The email may still be
// empty here; commands that talk to the sequence provider call
// RequireEmail separately so purely local commands keep working.
func (c *Config) Validate() error {
	if !genomeRe.MatchString(c.Genome) {
		return fmt.Errorf("genome build %q does not match hg<number>", c.Genome)
	}
	if c.CacheDir == "" {
		return errors.New("cache directory is not set")
	}
	return nil
}

// RequireEmail fails when no contact address is configured.
func (c *Config) RequireEmail() error {
	if c.Email == "" {
		return ErrEmailRequired
	}
	return nil
}

// PromptEmail asks the operator for a contact address on the given
// streams. Used on first run when no configuration file exists yet.
func PromptEmail(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "The sequence provider requires a contact email address.\nEmail: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read email: %w", err)
	}
	email := strings.TrimSpace(line)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%q is not an email address", email)
	}
	return email, nil
}
