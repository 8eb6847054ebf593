package notifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/gymnotify/pkg/pushclient"
)

// TestLoadConfigDefaults はパス未指定時にデフォルト値が使われることを検証する。
func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "8086" {
		t.Errorf("Port = %q, want %q", config.Port, "8086")
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", config.LogLevel, "info")
	}
	if config.StoreTimeoutSeconds != 10 {
		t.Errorf("StoreTimeoutSeconds = %d, want 10", config.StoreTimeoutSeconds)
	}
	if config.Push.URL != pushclient.DefaultURL {
		t.Errorf("Push.URL = %q, want %q", config.Push.URL, pushclient.DefaultURL)
	}
	if !config.Push.Batch {
		t.Error("Push.Batch = false, want true")
	}
	if config.NATS.Enabled {
		t.Error("NATS.Enabled = true, want false")
	}
	if config.NATS.Subject != "gym.events" {
		t.Errorf("NATS.Subject = %q, want %q", config.NATS.Subject, "gym.events")
	}
}

// TestLoadConfigFromFile はYAMLファイルからの読み込みを検証する。
func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9090"
log_level: debug
push:
  url: http://push.internal/send
  timeout_seconds: 3
  batch: false
nats:
  enabled: true
  subject: gym.changes
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("設定ファイルの作成に失敗: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "9090" {
		t.Errorf("Port = %q, want %q", config.Port, "9090")
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", config.LogLevel, "debug")
	}
	if config.Push.URL != "http://push.internal/send" {
		t.Errorf("Push.URL = %q, want %q", config.Push.URL, "http://push.internal/send")
	}
	if config.Push.TimeoutSeconds != 3 {
		t.Errorf("Push.TimeoutSeconds = %d, want 3", config.Push.TimeoutSeconds)
	}
	if config.Push.Batch {
		t.Error("Push.Batch = true, want false")
	}
	if !config.NATS.Enabled {
		t.Error("NATS.Enabled = false, want true")
	}
	if config.NATS.Subject != "gym.changes" {
		t.Errorf("NATS.Subject = %q, want %q", config.NATS.Subject, "gym.changes")
	}
	// ファイルで指定していない項目はデフォルトのまま
	if config.JWTSecret != "dev-secret-key" {
		t.Errorf("JWTSecret = %q, want %q", config.JWTSecret, "dev-secret-key")
	}
}

// TestLoadConfigEnvOverrides は環境変数による上書きを検証する。
func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PUSH_GATEWAY_URL", "http://env-push/send")
	t.Setenv("NATS_URL", "nats://env-nats:4222")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "7777" {
		t.Errorf("Port = %q, want %q", config.Port, "7777")
	}
	if config.DatabasePath != ":memory:" {
		t.Errorf("DatabasePath = %q, want %q", config.DatabasePath, ":memory:")
	}
	if config.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q, want %q", config.JWTSecret, "env-secret")
	}
	if config.Push.URL != "http://env-push/send" {
		t.Errorf("Push.URL = %q, want %q", config.Push.URL, "http://env-push/send")
	}
	if config.NATS.URL != "nats://env-nats:4222" {
		t.Errorf("NATS.URL = %q, want %q", config.NATS.URL, "nats://env-nats:4222")
	}
}

// TestLoadConfigMissingFile は存在しないファイル指定時のエラーを検証する。
func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() error = nil, want error")
	}
}
