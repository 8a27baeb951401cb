// =============================================================================
// notify.go - Feishu Webhook通知
// =============================================================================
//
// このファイルは新着報告のダイジェストをFeishu（飞书）カスタムボットの
// Webhookに送信します。
//
// 【処理の流れ】
//  1. プレーンテキストのダイジェストを生成
//  2. メッセージエンベロープ {msg_type: "text", content: {text: ...}} を構築
//  3. シークレットが設定されていればタイムスタンプ署名を付与
//  4. JSON POSTで送信（タイムアウト付き、1回のみ・リトライなし）
//
// 【署名方式】
//
//	sign = base64( HMAC-SHA256( key=secret, msg="{timestamp}\n{secret}" ) )
//
// Webhook URLが未設定の場合、Notifyは何もせず成功を返す。
// 配信失敗は呼び出し元にエラーとして返すが、抽出・状態更新には影響しない
// （ベストエフォート配信）。
//
// =============================================================================
package monitor

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FeishuNotifier はFeishu Webhookへの通知を担当する
type FeishuNotifier struct {
	webhookURL string
	secret     string
	client     *http.Client
}

// NewFeishuNotifier は設定からFeishu通知クライアントを作成する
//
// WebhookURLが空でも有効なインスタンスを返す（Notifyがno-opになる）。
func NewFeishuNotifier(cfg NotifyConfig) *FeishuNotifier {
	return &FeishuNotifier{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// feishuMessage はFeishuカスタムボットのメッセージエンベロープ
type feishuMessage struct {
	MsgType   string        `json:"msg_type"`            // 常に"text"
	Content   feishuContent `json:"content"`             // 本文
	Timestamp string        `json:"timestamp,omitempty"` // Unix秒（署名時のみ）
	Sign      string        `json:"sign,omitempty"`      // 署名（署名時のみ）
}

type feishuContent struct {
	Text string `json:"text"`
}

// Notify は新着アイテムのダイジェストをWebhookに送信する
//
// Webhook URLが未設定の場合は即座にnilを返す。
// 200番台以外のレスポンスはエラーとして返す。
func (fn *FeishuNotifier) Notify(items []ReportItem) error {
	if fn.webhookURL == "" {
		return nil
	}

	msg := feishuMessage{
		MsgType: "text",
		Content: feishuContent{Text: buildDigest(items)},
	}

	if fn.secret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		msg.Timestamp = ts
		msg.Sign = feishuSign(ts, fn.secret)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequest("POST", fn.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := fn.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %s", resp.Status)
	}
	return nil
}

// feishuSign はFeishuカスタムボットのタイムスタンプ署名を計算する
//
// 入力が同じなら常に同じ署名を返す決定的な純粋関数。
// 署名対象は "{timestamp}\n{secret}"、鍵はsecret。
func feishuSign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// buildDigest は新着報告のプレーンテキストダイジェストを生成する
//
// 【出力フォーマット】
//
//	大族数控-定期报告 发现新报告：
//	- 2024年第三季度报告（2024-10-30）
//	  https://www.hanscnc.com/uploads/2024q3.pdf
//	来源：https://www.hanscnc.com/investorsreport/list.html
//
// Pagesが取得済みのアイテムはタイトル行に「共N页」を付記する。
func buildDigest(items []ReportItem) string {
	var sb strings.Builder

	sb.WriteString(SourceName)
	sb.WriteString(" 发现新报告：\n")

	for _, it := range items {
		sb.WriteString(fmt.Sprintf("- %s（%s）", it.Title, it.Date))
		if it.Pages > 0 {
			sb.WriteString(fmt.Sprintf(" 共%d页", it.Pages))
		}
		sb.WriteString("\n  ")
		sb.WriteString(it.Href)
		sb.WriteString("\n")
	}

	sb.WriteString("来源：")
	sb.WriteString(BaseURL)

	return sb.String()
}
