package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	keyringService  = "remindclaw"
	keyringTokenKey = "discord_token"

	tokenEnvVar = "REMINDCLAW_DISCORD_TOKEN"
)

// StoreToken saves the Discord bot token in the OS keyring.
func StoreToken(token string) error {
	if err := keyring.Set(keyringService, keyringTokenKey, token); err != nil {
		return fmt.Errorf("storing token in keyring: %w", err)
	}
	return nil
}

// GetToken returns the token from the OS keyring, or "" when absent.
func GetToken() string {
	val, err := keyring.Get(keyringService, keyringTokenKey)
	if err != nil {
		return ""
	}
	return val
}

// DeleteToken removes the token from the OS keyring. A missing entry is not
// an error.
func DeleteToken() error {
	err := keyring.Delete(keyringService, keyringTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting token from keyring: %w", err)
	}
	return nil
}

// ResolveDiscordToken fills cfg.Discord.Token from, in order, the OS
// keyring, REMINDCLAW_DISCORD_TOKEN and the value already in the file.
// It reports where the token came from ("" when none was found).
func ResolveDiscordToken(cfg *Config, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	if tok := GetToken(); tok != "" {
		cfg.Discord.Token = tok
		logger.Debug("discord token loaded from OS keyring")
		return "keyring"
	}
	if tok := os.Getenv(tokenEnvVar); tok != "" {
		cfg.Discord.Token = tok
		logger.Debug("discord token loaded from environment")
		return "env"
	}
	if cfg.Discord.Token != "" && !strings.HasPrefix(cfg.Discord.Token, "$") {
		logger.Warn("discord token is stored in plaintext in the config file",
			"hint", "run 'remindclaw token set' or use ${"+tokenEnvVar+"}")
		return "config"
	}

	cfg.Discord.Token = ""
	return ""
}

// ReadSecret prompts on stdout and reads a line from stdin without echo when
// stdin is a terminal.
func ReadSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	var buf [1024]byte
	n, err := os.Stdin.Read(buf[:])
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(buf[:n])), nil
}
