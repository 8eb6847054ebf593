package notifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/gymnotify/pkg/pushclient"
)

// Config はサービス全体の動作設定。
// YAMLファイルから読み込み、一部の項目は環境変数で上書きできる。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `yaml:"port"`
	// DatabasePath はSQLiteデータベースのDSN。
	DatabasePath string `yaml:"database_path"`
	// JWTSecret は通知閲覧APIのトークン検証に使用する共有鍵。
	JWTSecret string `yaml:"jwt_secret"`
	// LogLevel はログ出力レベル（debug/info/warn/error）。
	LogLevel string `yaml:"log_level"`
	// StoreTimeoutSeconds はストア操作1回あたりのタイムアウト（秒）。
	StoreTimeoutSeconds int `yaml:"store_timeout_seconds"`
	// Push はプッシュゲートウェイの設定。
	Push PushConfig `yaml:"push"`
	// NATS はNATS経由のイベント受信の設定。
	NATS NATSConfig `yaml:"nats"`
}

// PushConfig はプッシュゲートウェイへの送信設定。
type PushConfig struct {
	// URL はゲートウェイの送信エンドポイント。
	URL string `yaml:"url"`
	// TimeoutSeconds は送信リクエストのタイムアウト（秒）。
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Batch はバッチ送信を使用するかどうか。
	Batch bool `yaml:"batch"`
}

// NATSConfig はNATSサブスクライバの設定。
type NATSConfig struct {
	// Enabled はNATS経由のイベント受信を有効にするかどうか。
	Enabled bool `yaml:"enabled"`
	// URL はNATSサーバーの接続先。
	URL string `yaml:"url"`
	// Subject は変更イベントを購読するサブジェクト。
	Subject string `yaml:"subject"`
	// MaxReconnect は再接続の最大試行回数。
	MaxReconnect int `yaml:"max_reconnect"`
}

// LoadConfig は設定を読み込む。pathが空の場合はデフォルト値のみを使用する。
// 読み込み後、PORT・DATABASE_PATH・JWT_SECRET・PUSH_GATEWAY_URL・NATS_URLの
// 各環境変数が設定されていれば対応する項目を上書きする。
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Port:                "8086",
		DatabasePath:        "/data/notifier.db?_journal_mode=WAL&_busy_timeout=5000",
		JWTSecret:           "dev-secret-key",
		LogLevel:            "info",
		StoreTimeoutSeconds: 10,
		Push: PushConfig{
			URL:            pushclient.DefaultURL,
			TimeoutSeconds: 10,
			Batch:          true,
		},
		NATS: NATSConfig{
			URL:          "nats://localhost:4222",
			Subject:      "gym.events",
			MaxReconnect: 10,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides は環境変数による設定の上書きを適用する。
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PORT"); v != "" {
		config.Port = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		config.DatabasePath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.JWTSecret = v
	}
	if v := os.Getenv("PUSH_GATEWAY_URL"); v != "" {
		config.Push.URL = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		config.NATS.URL = v
	}
}
