package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type (
	projectConfig struct {
		Migrations  string `yaml:"migrations"`
		DatabaseURL string `yaml:"database_url"`
		Table       string `yaml:"table"`
	}

	configFile struct {
		Version string        `yaml:"version"`
		Project projectConfig `yaml:"project"`
	}

	// Config is the resolved project configuration the factory works from.
	Config struct {
		DatabaseURL      string
		MigrationsFolder string
		LedgerTable      string
	}
)

// LoadConfig reads and resolves the configuration file inside the project
// folder. The migrations folder defaults to the migrations directory next
// to the configuration file.
func LoadConfig(folder string) (Config, error) {
	var cfg Config

	path := filepath.Join(folder, configName)

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read configuration file [%s]", path)
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrapf(err, "could not parse configuration file [%s]", path)
	}

	cfg.DatabaseURL = expandEnv(cfgFile.Project.DatabaseURL)
	cfg.MigrationsFolder = expandEnv(cfgFile.Project.Migrations)
	cfg.LedgerTable = cfgFile.Project.Table

	if cfg.MigrationsFolder == "" {
		cfg.MigrationsFolder = filepath.Join(folder, "migrations")
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.Errorf("database url is not set in [%s]", path)
	}

	return cfg, nil
}

// expandEnv resolves the %%VAR%% indirection, so secrets like the database
// url can stay out of the configuration file.
func expandEnv(v string) string {
	if strings.HasPrefix(v, "%%") && strings.HasSuffix(v, "%%") {
		return os.Getenv(strings.ReplaceAll(v, "%%", ""))
	}

	return v
}
