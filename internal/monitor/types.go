// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはreport-relay全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - ReportItem: 一覧ページから抽出した定期報告1件
//   - SeenState:  通知済みhrefの永続化レコード
//
// =============================================================================
package monitor

// -----------------------------------------------------------------------------
// ReportItem - 定期報告エントリ
// -----------------------------------------------------------------------------
//
// 一覧ページ（またはフィード）から抽出した報告書1件を表します。
//
// 【フィールドの説明】
//   Title: 報告書タイトル（見つからない場合はTitleUnknownセンチネル）
//   Date:  公開日（"YYYY-MM-DD"、見つからない場合は空文字列）
//   Href:  ダウンロードリンクの絶対URL。アイテムの同一性キー
//   Pages: PDFページ数（-inspectPDF有効時のみ、0は未取得）
//
// HrefがアイテムのIDであり、同一Hrefのアイテムは同一の報告書として扱う。
// TitleとDateは常に値を持つ（センチネル/空文字列）ため、
// 後段のフォーマット処理でnilチェックは不要。
type ReportItem struct {
	Title string `json:"title"`           // 報告書タイトル
	Date  string `json:"date"`            // 公開日（YYYY-MM-DD）
	Href  string `json:"href"`            // 絶対URL（同一性キー）
	Pages int    `json:"pages,omitempty"` // PDFページ数（任意の付加情報）
}

// TitleUnknown はタイトルが抽出できなかった場合のセンチネル値
const TitleUnknown = "未识别标题"

// -----------------------------------------------------------------------------
// SeenState - 既読状態
// -----------------------------------------------------------------------------
//
// 過去の実行で観測済みのhrefを保持します。
//
// 【ライフサイクル】
//   - 初回実行時に空で生成される
//   - hrefは追加されるのみで削除されない（単調増加）
//   - 実行開始時にファイルからロードし、実行終了時に全量を書き戻す
//
// SeenHrefsは集合として扱うが、ファイル上は順序付きリストとして永続化する
// （可読性と出力の決定性のため。既存順を保ち、新規hrefを末尾に追加）。
type SeenState struct {
	SeenHrefs []string `json:"seen_hrefs"` // 観測済みhref（追加順）
}

// Contains はhrefが既読かどうかを返す
func (s *SeenState) Contains(href string) bool {
	for _, h := range s.SeenHrefs {
		if h == href {
			return true
		}
	}
	return false
}

// IsEmpty は既読hrefが1件もないかどうかを返す（初回実行の判定に使用）
func (s *SeenState) IsEmpty() bool {
	return len(s.SeenHrefs) == 0
}

// Add は未登録のhrefのみを追加順を保って登録する
func (s *SeenState) Add(hrefs ...string) {
	for _, h := range hrefs {
		if h == "" || s.Contains(h) {
			continue
		}
		s.SeenHrefs = append(s.SeenHrefs, h)
	}
}
