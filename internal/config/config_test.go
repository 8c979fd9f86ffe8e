package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// configEnv lists every variable Load reads, so tests start from a
// clean slate regardless of the outer environment.
var configEnv = []string{
	"TELEGRAM_BOT_TOKEN",
	"DATABASE_PATH",
	"TARGETS_PATH",
	"FETCH_SCHEDULE",
	"LOG_LEVEL",
	"ALLOWED_USERS",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"})

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		TelegramBotToken: "123:abc",
		DatabasePath:     "./data/bot.db",
		TargetsPath:      "./targets.toml",
		FetchSchedule:    "0 1 * * *",
		LogLevel:         "info",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"DATABASE_PATH":      "/var/lib/manga/bot.db",
		"TARGETS_PATH":       "/etc/manga/targets.toml",
		"FETCH_SCHEDULE":     "0 */6 * * *",
		"LOG_LEVEL":          "warn",
		"ALLOWED_USERS":      "7, 19 ,23,",
	})

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		TelegramBotToken: "123:abc",
		DatabasePath:     "/var/lib/manga/bot.db",
		TargetsPath:      "/etc/manga/targets.toml",
		FetchSchedule:    "0 */6 * * *",
		LogLevel:         "warn",
		AllowedUsers:     []int64{7, 19, 23},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing token",
			env:  map[string]string{},
		},
		{
			name: "bad allowed user",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "123:abc",
				"ALLOWED_USERS":      "7,none",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	open := &Config{}
	if !open.IsUserAllowed(5) {
		t.Error("empty allow list must permit everyone")
	}

	gated := &Config{AllowedUsers: []int64{7, 19}}
	if !gated.IsUserAllowed(19) {
		t.Error("listed user must be permitted")
	}
	if gated.IsUserAllowed(5) {
		t.Error("unlisted user must be rejected")
	}
}
