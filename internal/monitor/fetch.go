// =============================================================================
// fetch.go - 一覧ページ取得
// =============================================================================
//
// このファイルは監視対象ページのHTML取得を提供します。
//
// 【処理の流れ】
//  1. ブラウザ風ヘッダー（User-Agent, Accept）付きでGETリクエスト
//  2. HTTPステータスコードチェック（200番台以外はエラー）
//  3. Content-Type/HTMLメタタグから文字エンコーディングを自動判定して
//     UTF-8にデコード（判定不能時はUTF-8として読む）
//  4. 失敗時は指数バックオフでリトライ（1秒→2秒、上限10秒、最大3回）
//
// リトライが尽きた場合のみエラーを返し、呼び出し元（オーケストレーター）が
// 実行を中断する。状態の変更は一切発生しない。
//
// =============================================================================
package monitor

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// fetchMaxAttempts はHTML取得の最大試行回数
const fetchMaxAttempts = 3

// fetchMaxBackoff はリトライ待機時間の上限
const fetchMaxBackoff = 10 * time.Second

// fetchHTML は指数バックオフでリトライしながら一覧ページのHTMLを取得する
//
// 【指数バックオフとは】
//
//	失敗するたびに待機時間を2倍にしていく方式
//	1回目失敗: 1秒待機
//	2回目失敗: 2秒待機
//
// これにより、一時的なネットワーク障害やサーバー過負荷に対応できる。
func fetchHTML(pageURL string, cfg SourceConfig) (string, error) {
	var lastErr error

	for i := 0; i < fetchMaxAttempts; i++ {
		if i > 0 {
			// 指数バックオフ: 2^(i-1) 秒待機（上限10秒）
			wait := time.Duration(math.Pow(2, float64(i-1))) * time.Second
			if wait > fetchMaxBackoff {
				wait = fetchMaxBackoff
			}
			infof("Retrying fetch in %v...", wait)
			time.Sleep(wait)
		}

		html, err := fetchOnce(pageURL, cfg)
		if err == nil {
			return html, nil
		}

		lastErr = err
		warnf("Fetch failed (attempt %d/%d): %v", i+1, fetchMaxAttempts, err)
	}

	return "", fmt.Errorf("failed to fetch %s after %d attempts: %w", pageURL, fetchMaxAttempts, lastErr)
}

// fetchOnce は1回のGETリクエストでHTMLを取得してUTF-8文字列として返す
func fetchOnce(pageURL string, cfg SourceConfig) (string, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("request creation failed: %w", err)
	}
	// ブロッキング回避のため、ブラウザ風のヘッダーを設定
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s: status %s", pageURL, resp.Status)
	}

	// Content-Typeヘッダーとバイト列の先頭からエンコーディングを自動判定。
	// 中国語サイトはGB2312/GBKで配信されることがあるため必須。
	// 判定できない場合charset.NewReaderはUTF-8のまま通す。
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("charset detection failed: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading body failed: %w", err)
	}

	return string(body), nil
}
