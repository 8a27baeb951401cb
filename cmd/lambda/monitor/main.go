// =============================================================================
// Lambda: report-monitor
// =============================================================================
//
// 定期報告一覧ページを1回検査し、新着をFeishuに通知するLambda関数。
// EventBridgeスケジュールから定期起動する前提（実行間隔はスケジューラ側）。
//
// 環境変数:
//   - FEISHU_WEBHOOK_URL: Feishu WebhookのURL（未設定なら通知スキップ）
//   - FEISHU_SECRET:      署名用シークレット（任意）
//   - STATE_PATH:         既読状態ファイルのパス（/tmp配下やEFSを想定）
//   - TOP_N:              アイテム数上限（デフォルト: 20）
//   - REPORT_FEED_URL:    RSS/AtomフィードURL（任意）
//   - INSPECT_PDF:        新着PDFのページ数取得（任意）
//   - FORCE_NOTIFY:       疎通確認モード（任意）
//
// =============================================================================
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"report-relay/internal/monitor"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	NewItems   int    `json:"newItems"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting report-monitor Lambda...")

	cfg := monitor.FromEnv()
	log.Printf("Config: topN=%d, state=%s, force=%v", cfg.Source.TopN, cfg.State.Path, cfg.Run.ForceNotify)

	result, err := monitor.Run(cfg)
	if err != nil {
		log.Printf("Run failed: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	log.Printf("Run finished: %s", result.Message)
	return Response{
		StatusCode: 200,
		Message:    result.Message,
		NewItems:   result.NewItems,
	}, nil
}

func main() {
	lambda.Start(Handler)
}
