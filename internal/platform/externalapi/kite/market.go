package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"cloud.google.com/go/civil"

	"market_dashboard/internal/feature/historical/domain/entity"
	historicalusecase "market_dashboard/internal/feature/historical/usecase"
	"market_dashboard/internal/platform/externalapi/kite/dto"
	"market_dashboard/internal/shared/ratelimiter"
)

// KiteMarket はKite Connect APIからローソク足・銘柄一覧・気配値を取得する実装です。
type KiteMarket struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// KiteMarketがCandleSourceを実装していることをコンパイル時に検証します。
var _ historicalusecase.CandleSource = (*KiteMarket)(nil)

// NewKiteMarket は指定された設定とHTTPクライアントでKiteMarketの新しいインスタンスを生成します。
// limiter が nil の場合は cfg.RequestsPerSecond から生成します。
func NewKiteMarket(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *KiteMarket {
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(cfg.RequestsPerSecond, secondInterval)
	}
	return &KiteMarket{cfg: cfg, client: client, limiter: limiter}
}

// GetCandles は instrument token の [from, to] のローソク足を取得します。
// タイムスタンプはパースせず RawTimestamp に入れて返します。
func (k *KiteMarket) GetCandles(ctx context.Context, token int64, from, to civil.Date, interval entity.Interval) ([]entity.Bar, error) {
	q := url.Values{}
	q.Set("from", from.String())
	q.Set("to", to.String())

	path := fmt.Sprintf("/instruments/historical/%s/%s", strconv.FormatInt(token, 10), url.PathEscape(string(interval)))
	res, err := k.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.StatusCode >= 400 {
		return nil, decodeError(res)
	}

	// JSONレスポンスをDTOにデコード
	var body dto.HistoricalResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("kite: decode historical response: %w", err)
	}
	if body.Status == "error" {
		return nil, apiError(res.StatusCode, body.ErrorType, body.Message)
	}

	bars := make([]entity.Bar, 0, len(body.Data.Candles))
	for _, c := range body.Data.Candles {
		bars = append(bars, entity.Bar{
			Open:         c.Open,
			High:         c.High,
			Low:          c.Low,
			Close:        c.Close,
			Volume:       c.Volume,
			RawTimestamp: c.Timestamp,
		})
	}
	return bars, nil
}

// get はレートリミットを待ってから認証ヘッダー付きでGETリクエストを送ります。
func (k *KiteMarket) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := k.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", k.cfg.authorization())

	// リクエストを実行
	return k.client.Do(req)
}

// apiError はエラーレスポンスをエラー値に変換します。
func apiError(status int, errorType, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	if errorType != "" {
		return fmt.Errorf("kite http %d: %s: %s", status, errorType, message)
	}
	return fmt.Errorf("kite http %d: %s", status, message)
}

// decodeError はJSONのエラーボディを読み取ってエラー値を返します。
func decodeError(res *http.Response) error {
	var body dto.ErrorResponse
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err := json.Unmarshal(b, &body); err != nil {
		return apiError(res.StatusCode, "", "")
	}
	return apiError(res.StatusCode, body.ErrorType, body.Message)
}

func closeBody(res *http.Response) {
	if err := res.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err)
	}
}
