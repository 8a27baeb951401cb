// =============================================================================
// config.go - モニター設定
// =============================================================================
//
// このファイルはCLIフラグの解析と設定管理を行います。
// 全てのフラグは環境変数をデフォルト値として参照するため、
// Lambda等のフラグを渡せない実行環境でも同じ設定が使えます。
//
// 【設定グループ】
//   - SourceConfig: 収集元設定（件数上限、フィードURL、PDF検査）
//   - StateConfig:  既読状態ファイル設定
//   - NotifyConfig: Feishu Webhook設定
//   - RunConfig:    実行モード設定（force-notify）
//
// =============================================================================
package monitor

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// 固定値
// =============================================================================

// BaseURL は監視対象の定期報告一覧ページ
const BaseURL = "https://www.hanscnc.com/investorsreport/list.html"

// SourceName は通知に表示するソースラベル
const SourceName = "大族数控-定期报告"

// DefaultStatePath は既読状態ファイルのデフォルトパス
const DefaultStatePath = "data/state.json"

// DefaultTopN は1回の実行で考慮するアイテム数の上限デフォルト
const DefaultTopN = 20

// =============================================================================
// 設定構造体
// =============================================================================

// Config はモニターの全設定を保持する
type Config struct {
	Source SourceConfig
	State  StateConfig
	Notify NotifyConfig
	Run    RunConfig
}

// SourceConfig は収集元に関する設定
type SourceConfig struct {
	// PageURL は監視対象の一覧ページURL（通常はBaseURL固定。
	// REPORT_PAGE_URLでの上書きは検証用）
	PageURL string

	// TopN は1回の実行で考慮するアイテム数の上限
	TopN int

	// FeedURL が指定された場合、HTMLスクレイピングの代わりに
	// RSS/Atomフィードから収集する
	FeedURL string

	// InspectPDF がtrueの場合、新着PDFのページ数を取得して通知に含める
	InspectPDF bool

	// UserAgent はHTTPリクエスト時のUser-Agentヘッダー
	UserAgent string

	// Timeout はHTTPリクエストのタイムアウト時間
	Timeout time.Duration
}

// StateConfig は既読状態の永続化に関する設定
type StateConfig struct {
	// Path は既読状態JSONファイルのパス
	Path string
}

// NotifyConfig はFeishu Webhook通知に関する設定
type NotifyConfig struct {
	// WebhookURL が空の場合、通知は行われない（no-op）
	WebhookURL string

	// Secret は署名用の共有シークレット（空の場合は署名なし）
	Secret string

	// Timeout はWebhook POSTのタイムアウト時間
	Timeout time.Duration
}

// RunConfig は実行モードに関する設定
type RunConfig struct {
	// ForceNotify がtrueの場合、最新1件のみを通知し状態は変更しない
	// （通知経路の疎通確認用）
	ForceNotify bool
}

// =============================================================================
// フラグ解析
// =============================================================================

// ParseFlags はCLIフラグを解析してConfigを返す
//
// 各フラグのデフォルト値は対応する環境変数から取られる:
//
//	-top        TOP_N（デフォルト: 20）
//	-feed       REPORT_FEED_URL
//	-inspectPDF INSPECT_PDF
//	-state      STATE_PATH（デフォルト: data/state.json）
//	-force      FORCE_NOTIFY
//
// Webhook URLとシークレットは環境変数のみ
// （FEISHU_WEBHOOK_URL / FEISHU_SECRET）。
func ParseFlags() *Config {
	cfg := FromEnv()

	flag.IntVar(&cfg.Source.TopN, "top", cfg.Source.TopN, "max report items considered per run")
	flag.StringVar(&cfg.Source.FeedURL, "feed", cfg.Source.FeedURL, "optional: collect from RSS/Atom feed instead of scraping HTML")
	flag.BoolVar(&cfg.Source.InspectPDF, "inspectPDF", cfg.Source.InspectPDF, "fetch new PDFs and include page counts in the digest")
	flag.StringVar(&cfg.State.Path, "state", cfg.State.Path, "path to seen-state JSON file")
	flag.BoolVar(&cfg.Run.ForceNotify, "force", cfg.Run.ForceNotify, "send a one-off smoke-test notification (state is not changed)")
	flag.Parse()

	return cfg
}

// FromEnv は環境変数のみからConfigを構築する（Lambda実行用）
func FromEnv() *Config {
	return &Config{
		Source: SourceConfig{
			PageURL:    envString("REPORT_PAGE_URL", BaseURL),
			TopN:       envInt("TOP_N", DefaultTopN),
			FeedURL:    strings.TrimSpace(os.Getenv("REPORT_FEED_URL")),
			InspectPDF: envBool("INSPECT_PDF"),
			UserAgent:  "Mozilla/5.0 (compatible; report-relay/1.0; +https://example.invalid)",
			Timeout:    15 * time.Second,
		},
		State: StateConfig{
			Path: envString("STATE_PATH", DefaultStatePath),
		},
		Notify: NotifyConfig{
			WebhookURL: strings.TrimSpace(os.Getenv("FEISHU_WEBHOOK_URL")),
			Secret:     strings.TrimSpace(os.Getenv("FEISHU_SECRET")),
			Timeout:    10 * time.Second,
		},
		Run: RunConfig{
			ForceNotify: envBool("FORCE_NOTIFY"),
		},
	}
}

// =============================================================================
// 環境変数ヘルパー
// =============================================================================

// envString は環境変数を読み、空ならフォールバック値を返す
func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envInt は環境変数を正の整数として読み、不正または未設定ならフォールバック値を返す
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

// envBool は環境変数を真偽値として読む（"1"/"true"/"yes"をtrueとみなす）
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
