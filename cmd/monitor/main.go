// =============================================================================
// main.go - report-relay モニターのエントリーポイント
// =============================================================================
//
// このプログラムは大族数控の定期報告一覧ページを1回検査し、
// 未通知の新着報告があればFeishu Webhookにダイジェストを送信します。
// 定期実行は外部スケジューラ（cron / EventBridge等）に任せる前提の
// ワンショットCLIです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//	┌─────────────┐   ┌─────────────┐   ┌─────────────┐
//	│  1. 取得    │ → │  2. 抽出    │ → │  3. 差分    │
//	│  一覧HTML   │   │  ReportItem │   │  既読と比較 │
//	└─────────────┘   └─────────────┘   └─────────────┘
//	                                           │
//	┌─────────────┐   ┌─────────────┐          ▼
//	│  5. 永続化  │ ← │  4. 通知    │ ←  新着のみ
//	│  state.json │   │  Feishu     │
//	└─────────────┘   └─────────────┘
//
// =============================================================================
// 【CLIフラグ一覧】（デフォルトは対応する環境変数から）
// =============================================================================
//
//	-top        1回の実行で考慮するアイテム数上限（TOP_N、デフォルト20）
//	-state      既読状態ファイルのパス（STATE_PATH、デフォルトdata/state.json）
//	-feed       RSS/AtomフィードURL（REPORT_FEED_URL、省略時はHTML取得）
//	-inspectPDF 新着PDFのページ数を通知に含める（INSPECT_PDF）
//	-force      最新1件のみ通知する疎通確認モード。状態は変更しない
//	            （FORCE_NOTIFY）
//
// Webhookは FEISHU_WEBHOOK_URL / FEISHU_SECRET 環境変数で設定する。
// 未設定の場合、通知はスキップされる（検出と既読化は行われる）。
//
// =============================================================================
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"report-relay/internal/monitor"
)

func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "INFO: .env file not loaded: %v (using environment variables only)\n", err)
	}

	cfg := monitor.ParseFlags()

	result, err := monitor.Run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	// 実行結果のステータス行はstdoutへ（ログはstderr）
	fmt.Println(result.Message)
}
