// =============================================================================
// extract.go - 定期報告抽出エンジン
// =============================================================================
//
// このファイルは一覧ページのHTMLからReportItemを抽出します。
// 対象ページには機械可読なマークアップが存在しないため、
// 段階的に緩くなるテキストヒューリスティックを重ねて抽出します。
//
// 【抽出レイヤー】（前段が空振りしたときのみ次段へ）
//  1. ダウンロードマーカー（"下载"）を含むアンカーを起点に、
//     近傍（アンカー・親・祖父）からタイトルと日付を探索
//  2. 日付: 近傍で見つからなければ周辺テキスト全体を日付パターンで走査
//  3. タイトル: 近傍で見つからなければ文書全体の最初の"报告"見出しを共用
//  4. アンカーが1件も取れなければ、文書全体の"报告"見出し/リンクから再構成
//
// 各レイヤーは純粋な探索関数として分離されており、個別にテストできる。
// 不正なHTMLでもエラーにはならず、最悪でも空のスライスを返す。
//
// =============================================================================
package monitor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// マーカー文字列。対象ページは全ての報告行に同じダウンロードラベルを
// 使い回しているため、これがアンカー識別の一次シグナルになる。
const (
	markerDownload = "下载"
	markerReport   = "报告"
)

// titleMarkers はタイトル候補テキストの判定に使うドメインマーカー
var titleMarkers = []string{markerReport, "季度", "半年度", "年度"}

// reDate はカレンダー日付パターン（YYYY-MM-DD）
var reDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// neighborLimit は近傍探索1階層あたりで検査する子孫要素数の上限
// （暴走トラバーサル防止）
const neighborLimit = 8

// Extract はHTMLからReportItemを抽出する
//
// 【引数】
//   - html:    一覧ページのHTML（UTF-8）
//   - baseURL: 相対href解決の基準URL
//   - topN:    返すアイテム数の上限（呼び出し元が必ず指定する）
//
// 【戻り値】
//
//	文書順・href重複なし・最大topN件のReportItem。
//	パース不能なHTMLや空のページでは空のスライスを返す（エラーは返さない）。
//
// 同一入力に対して常に同一の出力を返す決定的な処理。
func Extract(html, baseURL string, topN int) []ReportItem {
	if topN <= 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// net/htmlは寛容なパーサーなのでここに来ることはまずないが、
		// 抽出エンジンは決して失敗しない契約なので空を返す
		debugf("Extract: HTML parse failed: %v", err)
		return nil
	}

	items := extractByDownloadAnchors(doc, baseURL)
	if len(items) == 0 {
		// ダウンロードラベルの文言が変わった等でアンカー探索が空振りした
		// 場合の粗い回復パス
		debugf("Extract: anchor scan found nothing, falling back to report headings")
		items = extractByReportHeadings(doc, baseURL)
	}

	if len(items) > topN {
		items = items[:topN]
	}
	return items
}

// extractByDownloadAnchors は"下载"アンカーを起点とする一次抽出レイヤー
//
// 文書順にアンカーを走査し、解決済みhrefで重複排除（先勝ち）しながら
// ReportItemを組み立てる。タイトル・日付は近傍探索で補う。
func extractByDownloadAnchors(doc *goquery.Document, baseURL string) []ReportItem {
	var items []ReportItem
	seen := make(map[string]bool)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(normalizeWhitespace(a.Text()), markerDownload) {
			return
		}

		rawHref, _ := a.Attr("href")
		href := resolveURL(baseURL, rawHref)
		if href == "" || seen[href] {
			return
		}

		title, date := titleAndDateNear(a)
		if date == "" {
			date = dateFromContext(a)
		}
		if title == "" {
			title = titleDocWide(doc)
		}
		if title == "" {
			title = TitleUnknown
		}

		seen[href] = true
		items = append(items, ReportItem{Title: title, Date: date, Href: href})
	})

	debugf("extractByDownloadAnchors: %d items", len(items))
	return items
}

// titleAndDateNear はアンカーの構造的近傍からタイトルと日付を探索する
//
// 近傍 = アンカー自身・親・祖父の3階層。各階層で見出し/リンク/テキスト系の
// 子孫要素を先頭からneighborLimit件だけ検査し、
//   - タイトル: ドメインマーカーのいずれかを含む最初のテキスト
//   - 日付:    日付パターンにマッチする最初の部分文字列
//
// 両方見つかった時点で打ち切る。
func titleAndDateNear(a *goquery.Selection) (title, date string) {
	levels := []*goquery.Selection{a, a.Parent(), a.Parent().Parent()}

	for _, up := range levels {
		if up.Length() == 0 {
			continue
		}

		up.Find("h3, h4, a, p, span").EachWithBreak(func(i int, n *goquery.Selection) bool {
			if i >= neighborLimit {
				return false
			}
			t := normalizeWhitespace(n.Text())
			if title == "" && containsTitleMarker(t) {
				title = t
			}
			if date == "" {
				date = reDate.FindString(t)
			}
			return title == "" || date == ""
		})

		if title != "" && date != "" {
			break
		}
	}
	return title, date
}

// dateFromContext はアンカーと2階層までの祖先の連結テキストから日付を探す
//
// 構造化された近傍探索（titleAndDateNear）で日付が取れなかった場合の
// フォールバック。
func dateFromContext(a *goquery.Selection) string {
	var texts []string
	for _, up := range []*goquery.Selection{a, a.Parent(), a.Parent().Parent()} {
		if up.Length() == 0 {
			continue
		}
		texts = append(texts, normalizeWhitespace(up.Text()))
	}
	return reDate.FindString(strings.Join(texts, " "))
}

// titleDocWide は文書全体の最初の"报告"見出しテキストを返す
//
// アンカー近傍からタイトルが取れない場合の最終フォールバック。
// アンカー固有ではなく全アイテムで共用される値になる。
func titleDocWide(doc *goquery.Document) string {
	title := ""
	doc.Find("h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		t := normalizeWhitespace(h.Text())
		if strings.Contains(t, markerReport) {
			title = t
			return false
		}
		return true
	})
	return title
}

// extractByReportHeadings は文書全体フォールバックレイヤー
//
// ダウンロードアンカー探索が0件だった場合のみ呼ばれる。
// "报告"を含む見出し/リンク要素そのものをアイテムとして再構成する。
// hrefは要素自身または内包アンカーから取り、どちらも無ければbaseURLを使う。
func extractByReportHeadings(doc *goquery.Document, baseURL string) []ReportItem {
	var items []ReportItem
	seen := make(map[string]bool)

	doc.Find("h3, h4, a").Each(func(_ int, n *goquery.Selection) {
		t := normalizeWhitespace(n.Text())
		if !strings.Contains(t, markerReport) {
			return
		}

		href := baseURL
		anchor := n
		if !n.Is("a") {
			anchor = n.Find("a").First()
		}
		if anchor.Length() > 0 {
			if raw, ok := anchor.Attr("href"); ok {
				if resolved := resolveURL(baseURL, raw); resolved != "" {
					href = resolved
				}
			}
		}

		if seen[href] {
			return
		}
		seen[href] = true

		items = append(items, ReportItem{
			Title: t,
			Date:  reDate.FindString(t),
			Href:  href,
		})
	})

	debugf("extractByReportHeadings: %d items", len(items))
	return items
}

// containsTitleMarker はテキストがタイトル用ドメインマーカーを含むか判定する
func containsTitleMarker(t string) bool {
	for _, m := range titleMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}
