// 通知サービスのエントリポイント。
// データベース変更イベントを受信し、ジム会員アプリの通知レコード作成と
// プッシュ通知配信を行う。
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/internal/ingest"
	"github.com/nao1215/gymnotify/internal/notifier"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := notifier.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("設定の読み込みに失敗: %v", err)
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		logger.Warnf("不正なログレベル %q のためinfoを使用", config.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	server, err := notifier.NewServer(config, logger)
	if err != nil {
		logger.Fatalf("通知サーバーの初期化に失敗: %v", err)
	}

	if config.NATS.Enabled {
		subscriber, err := ingest.NewSubscriber(
			config.NATS.URL,
			config.NATS.Subject,
			config.NATS.MaxReconnect,
			server.Pipeline(),
			logger,
		)
		if err != nil {
			logger.Fatalf("NATSサブスクライバーの初期化に失敗: %v", err)
		}
		defer subscriber.Close()

		if err := subscriber.Subscribe(); err != nil {
			logger.Fatalf("NATS購読の開始に失敗: %v", err)
		}
	}

	logger.Infof("通知サービスを起動します: :%s", config.Port)
	if err := server.Run(); err != nil {
		logger.Fatalf("通知サービスの起動に失敗: %v", err)
	}
}
