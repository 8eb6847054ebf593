package pushclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL はExpo Push APIの送信エンドポイント。
const DefaultURL = "https://exp.host/--/api/v2/push/send"

// Message はプッシュゲートウェイに送信する1件のプッシュメッセージ。
// 配信試行後は結果にかかわらず破棄される一時データ。
type Message struct {
	// To は宛先デバイスのプッシュトークン。
	To string `json:"to"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
	// Sound は通知音の指定。
	Sound string `json:"sound"`
	// Priority は配信優先度。省略時はゲートウェイのデフォルトに従う。
	Priority string `json:"priority,omitempty"`
	// Data はアプリに引き渡される任意のキー・バリュー。画面遷移のヒント等を含む。
	Data map[string]string `json:"data,omitempty"`
}

// Ticket はゲートウェイが返すメッセージごとの受理結果。
type Ticket struct {
	// Status は受理結果（"ok" または "error"）。
	Status string `json:"status"`
	// ID は受理されたメッセージの識別子。
	ID string `json:"id,omitempty"`
	// Message はエラー時の説明文。
	Message string `json:"message,omitempty"`
}

const (
	// TicketStatusOK はメッセージがゲートウェイに受理されたことを表す。
	TicketStatusOK = "ok"
	// TicketStatusError はメッセージがゲートウェイに拒否されたことを表す。
	TicketStatusError = "error"
)

// OK はチケットが受理済みかどうかを返す。
func (t Ticket) OK() bool {
	return t.Status == TicketStatusOK
}

// Client はプッシュゲートウェイへの送信クライアント。
// タイムアウト付きのHTTPクライアントを内部に持つ。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// url はゲートウェイの送信エンドポイントURL。
	url string
}

// New は新しいプッシュゲートウェイクライアントを生成する。
// urlにはゲートウェイの送信エンドポイント（例: pushclient.DefaultURL）を指定する。
func New(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// SendBatch は複数のプッシュメッセージをJSON配列として1リクエストで送信する。
// 戻り値のチケットはメッセージと同じ順序で対応する。HTTPレベルの失敗は
// バッチ全体が未配達であることを意味する。
func (c *Client) SendBatch(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("プッシュメッセージのシリアライズに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("プッシュゲートウェイへの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("プッシュゲートウェイがエラーを返却: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	// レスポンス形式: {"data": [{"status": "ok"}, {"status": "error", "message": "..."}]}
	var result struct {
		Data []Ticket `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("チケットのデシリアライズに失敗: %w", err)
	}
	return result.Data, nil
}

// Send は1件のプッシュメッセージを単独リクエストで送信する。
// バッチ送信をサポートしないゲートウェイ向けのフォールバック。
func (c *Client) Send(ctx context.Context, message Message) (*Ticket, error) {
	tickets, err := c.SendBatch(ctx, []Message{message})
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("プッシュゲートウェイがチケットを返却しませんでした")
	}
	return &tickets[0], nil
}
