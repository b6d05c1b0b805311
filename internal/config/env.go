package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by icon-cli.
const EnvPrefix = "ICON_CLI"

// Env holds settings taken from ICON_CLI_* environment variables.
type Env struct {
	ConfigDir   string        `envconfig:"CONFIG_DIR"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"warn"`
	LogJSON     bool          `envconfig:"LOG_JSON" default:"false"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	PriceAPI    string        `envconfig:"PRICE_API"`
}

// LoadEnv reads the environment.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &env, nil
}

// DefaultDir returns ~/.icon-cli.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: could not determine home dir: %v", ErrFilesystem, err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// ResolveDir picks the base directory: explicit flag, then environment,
// then the default under the home directory.
func ResolveDir(flag string, env *Env) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env != nil && env.ConfigDir != "" {
		return env.ConfigDir, nil
	}
	return DefaultDir()
}

var envUnsafe = regexp.MustCompile(`[^A-Z0-9]+`)

// PasswordEnvVar returns the variable consulted for a keystore's
// passphrase, e.g. ICON_CLI_PASSWORD_ALICE.
func PasswordEnvVar(nickname string) string {
	name := envUnsafe.ReplaceAllString(strings.ToUpper(NormalizeName(nickname)), "_")
	return EnvPrefix + "_PASSWORD_" + strings.Trim(name, "_")
}
