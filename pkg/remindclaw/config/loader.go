package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR}, ${VAR:-default}, ${VAR:?message} and $VAR.
//
// Capture groups:
//   - 1: variable name in braces
//   - 2: modifier ("-" or "?")
//   - 3: default value or error message
//   - 4: bare variable name
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::(-|\?)([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// Load reads the YAML file at path over Default. An empty path loads the
// defaults alone. .env and .env.local are loaded first without overriding
// variables already set.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded, err := expandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("expanding environment variables: %w", err)
	}

	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveRelativePaths(cfg, path)
	checkFilePermissions(path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse unmarshals YAML over Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("mapping config: %w", err)
	}

	// halt_on_error defaults to true; only an explicit false turns it off.
	if sched, ok := raw["scheduler"].(map[string]any); ok {
		if _, set := sched["halt_on_error"]; !set {
			cfg.Scheduler.HaltOnError = Default().Scheduler.HaltOnError
		}
	}

	cfg.Database = cfg.Database.Effective()
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions. An existing file is
// copied to path+".bak" first. A token that came from the environment is
// written back as a reference.
func Save(cfg *Config, path string) error {
	sanitized := *cfg
	if tok := os.Getenv(tokenEnvVar); tok != "" && tok == cfg.Discord.Token {
		sanitized.Discord.Token = "${" + tokenEnvVar + "}"
	}

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if existing, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(path+".bak", existing, 0o600)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Find returns the first config file present in the standard locations, or
// "" when there is none.
func Find() string {
	candidates := []string{
		"remindclaw.yaml",
		"remindclaw.yml",
		"config.yaml",
		"config.yml",
		"configs/remindclaw.yaml",
		"configs/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars substitutes environment references in input. Unset
// variables without a modifier are left as written; an unset ${VAR:?msg}
// is an error.
func expandEnvVars(input string) (string, error) {
	var missing []string

	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name, modifier, value, bare := sub[1], sub[2], sub[3], sub[4]

		if bare != "" {
			if v, ok := os.LookupEnv(bare); ok {
				return v
			}
			return match
		}

		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		switch modifier {
		case "-":
			return value
		case "?":
			if value == "" {
				value = "required environment variable not set"
			}
			missing = append(missing, name+": "+value)
		}
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("config error: %s", strings.Join(missing, "; "))
	}
	return out, nil
}

// resolveRelativePaths anchors file paths to the config file's directory.
func resolveRelativePaths(cfg *Config, configPath string) {
	dir := filepath.Dir(configPath)
	cfg.Database.SQLite.Path = resolvePath(cfg.Database.SQLite.Path, dir)
	cfg.Console.HistoryFile = resolvePath(cfg.Console.HistoryFile, dir)
}

func resolvePath(path, dir string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// checkFilePermissions warns when the config file is readable by others.
func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0o044 != 0 {
		slog.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
		)
	}
}
