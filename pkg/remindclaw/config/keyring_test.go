package config

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestResolveDiscordToken(t *testing.T) {
	keyring.MockInit()

	cfg := Default()
	cfg.Discord.Token = "${REMINDCLAW_DISCORD_TOKEN}"
	t.Setenv(tokenEnvVar, "")

	if src := ResolveDiscordToken(cfg, nil); src != "" || cfg.Discord.Token != "" {
		t.Errorf("unresolved reference: source %q token %q", src, cfg.Discord.Token)
	}

	cfg.Discord.Token = "from-file"
	if src := ResolveDiscordToken(cfg, nil); src != "config" || cfg.Discord.Token != "from-file" {
		t.Errorf("config: source %q token %q", src, cfg.Discord.Token)
	}

	t.Setenv(tokenEnvVar, "from-env")
	if src := ResolveDiscordToken(cfg, nil); src != "env" || cfg.Discord.Token != "from-env" {
		t.Errorf("env: source %q token %q", src, cfg.Discord.Token)
	}

	if err := StoreToken("from-keyring"); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	if src := ResolveDiscordToken(cfg, nil); src != "keyring" || cfg.Discord.Token != "from-keyring" {
		t.Errorf("keyring: source %q token %q", src, cfg.Discord.Token)
	}

	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if GetToken() != "" {
		t.Error("token still in keyring after delete")
	}
	if err := DeleteToken(); err != nil {
		t.Errorf("deleting a missing token: %v", err)
	}
}
