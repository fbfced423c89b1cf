// Package kite はKite Connect（Zerodha）のマーケットデータAPIクライアントを提供します。
package kite

import (
	"os"
	"strconv"
	"time"
)

// DefaultBaseURL はKite Connect APIのベースURLです。
const DefaultBaseURL = "https://api.kite.trade"

// secondInterval はレートリミットのウィンドウです。
const secondInterval = time.Second

// Config はKite Connect APIクライアントの設定を保持します。
type Config struct {
	APIKey            string        // アプリのAPIキー
	AccessToken       string        // ログイン後に発行されるアクセストークン
	BaseURL           string        // APIのベースURL（例: "https://api.kite.trade"）
	Timeout           time.Duration // HTTPリクエストタイムアウト
	RequestsPerSecond int           // 1秒あたりの最大リクエスト数（0以下で無制限）
}

// LoadConfig は環境変数からKite Connectの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		APIKey:            os.Getenv("KITE_API_KEY"),
		AccessToken:       os.Getenv("KITE_ACCESS_TOKEN"),
		BaseURL:           os.Getenv("KITE_BASE_URL"),
		Timeout:           30 * time.Second,
		RequestsPerSecond: 3,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if v, err := strconv.Atoi(os.Getenv("KITE_REQUESTS_PER_SECOND")); err == nil {
		cfg.RequestsPerSecond = v
	}
	return cfg
}

// authorization は Authorization ヘッダーの値です。
func (c Config) authorization() string {
	return "token " + c.APIKey + ":" + c.AccessToken
}
