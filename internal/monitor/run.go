// =============================================================================
// run.go - 実行オーケストレーター
// =============================================================================
//
// このファイルは1回の監視実行の全体フローを制御します。
//
//	取得 → 抽出 → 差分 → 通知 → 永続化
//
// 【実行ポリシー】
//
//	▼ 初回実行（既読が空 かつ 抽出結果あり かつ forceでない）
//	   抽出した全hrefを既読として保存し、通知は送らない。
//	   監視開始前から存在する報告への通知洪水を防ぐための初期化。
//
//	▼ 定常実行
//	   未読アイテムが無ければ何もせず終了（保存もしない）。
//	   あれば通知を試行し、成否に関わらず既読に追加して保存する
//	   （at-most-once通知。配信失敗はログとステータス行にのみ残る）。
//
//	▼ force-notify
//	   最新1件のみを通知し、状態は一切変更しない（疎通確認用）。
//
// 状態は実行開始時に1回ロードし、終了間際に最大1回セーブする。
// 取得失敗・保存失敗はエラーとして返し実行を中断する。
// 通知失敗は実行を中断しない。
//
// =============================================================================
package monitor

import (
	"fmt"
)

// Result は1回の実行結果
type Result struct {
	// Message は人間向けのステータス行（stdoutにそのまま出せる形）
	Message string

	// NewItems は今回検出した未読アイテム数
	NewItems int

	// NotifyFailed は通知を試行して失敗したかどうか
	NotifyFailed bool
}

// Run は監視を1回実行する
//
// 戻り値のerrorは実行を中断した致命的エラー（取得リトライ枯渇、
// 状態ファイル読み書き失敗）のみ。通知失敗はResultに記録される。
func Run(cfg *Config) (*Result, error) {
	store := NewStateStore(cfg.State.Path)
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	items, err := collectItems(cfg)
	if err != nil {
		return nil, fmt.Errorf("collecting report items: %w", err)
	}
	debugf("Run: collected %d items, %d seen hrefs", len(items), len(state.SeenHrefs))

	notifier := NewFeishuNotifier(cfg.Notify)

	// force-notify: 最新1件のみ通知、状態は変更しない
	if cfg.Run.ForceNotify {
		return runForceNotify(cfg, notifier, items)
	}

	// 初回実行: 現在の全アイテムを既読化して終了（通知なし）
	if state.IsEmpty() && len(items) > 0 {
		state.Add(hrefsOf(items)...)
		if err := store.Save(state); err != nil {
			return nil, fmt.Errorf("saving state: %w", err)
		}
		return &Result{Message: "Initialized state; no notifications sent."}, nil
	}

	newItems, _ := Diff(state, items)
	if len(newItems) == 0 {
		return &Result{Message: "No new items."}, nil
	}

	if cfg.Source.InspectPDF {
		enrichWithPDFInfo(newItems, cfg.Source)
	}

	notifyErr := notifier.Notify(newItems)
	if notifyErr != nil {
		warnf("Feishu notify failed: %v", notifyErr)
	}

	// 通知の成否に関わらず既読化する。失敗時に既読化しないと
	// Webhook障害中に同じ報告が無限に再通知されるため
	state.Add(hrefsOf(newItems)...)
	if err := store.Save(state); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}

	if notifyErr != nil {
		return &Result{
			Message:      fmt.Sprintf("Feishu notify failed (%d items marked seen): %v", len(newItems), notifyErr),
			NewItems:     len(newItems),
			NotifyFailed: true,
		}, nil
	}

	return &Result{
		Message:  fmt.Sprintf("Notified %d new items.", len(newItems)),
		NewItems: len(newItems),
	}, nil
}

// runForceNotify はforce-notifyモードの実行パス
//
// 状態のロード結果すら使わず、保存も行わない。
func runForceNotify(cfg *Config, notifier *FeishuNotifier, items []ReportItem) (*Result, error) {
	if len(items) == 0 {
		return &Result{Message: "No items available for force notify."}, nil
	}

	target := items[:1] // 一覧は新しい順なので先頭が最新
	if cfg.Source.InspectPDF {
		enrichWithPDFInfo(target, cfg.Source)
	}

	if err := notifier.Notify(target); err != nil {
		warnf("Feishu notify failed: %v", err)
		return &Result{Message: "Force-notify sent (state not changed).", NotifyFailed: true}, nil
	}
	return &Result{Message: "Force-notify sent (state not changed)."}, nil
}

// collectItems は設定に応じてHTMLスクレイピングまたはフィードから収集する
func collectItems(cfg *Config) ([]ReportItem, error) {
	if cfg.Source.FeedURL != "" {
		return collectFromFeed(cfg.Source.FeedURL, cfg.Source.TopN, cfg.Source)
	}

	html, err := fetchHTML(cfg.Source.PageURL, cfg.Source)
	if err != nil {
		return nil, err
	}
	return Extract(html, cfg.Source.PageURL, cfg.Source.TopN), nil
}

// hrefsOf はアイテム列のhrefを抽出順のまま返す
func hrefsOf(items []ReportItem) []string {
	hrefs := make([]string, 0, len(items))
	for _, it := range items {
		hrefs = append(hrefs, it.Href)
	}
	return hrefs
}
