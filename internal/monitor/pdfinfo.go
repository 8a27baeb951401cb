// =============================================================================
// pdfinfo.go - PDF付加情報取得
// =============================================================================
//
// このファイルは新着報告のPDFをダウンロードしてページ数を取得します。
// -inspectPDF / INSPECT_PDF=1 のときのみ使用され、取得したページ数は
// 通知ダイジェストに「共N页」として表示されます。
//
// ベストエフォート処理: ダウンロードやパースに失敗しても警告ログを
// 出すだけで、アイテム自体はそのまま通知される。
//
// =============================================================================
package monitor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

// enrichWithPDFInfo は各アイテムのPDFページ数を取得してPagesに記録する
//
// hrefが.pdfで終わるアイテムのみ対象。スライスの要素を直接更新する。
func enrichWithPDFInfo(items []ReportItem, cfg SourceConfig) {
	client := &http.Client{Timeout: cfg.Timeout}

	for i := range items {
		if !strings.HasSuffix(strings.ToLower(items[i].Href), ".pdf") {
			continue
		}

		pages, err := pdfPageCount(items[i].Href, client, cfg.UserAgent)
		if err != nil {
			warnf("PDF inspect failed for %s: %v", items[i].Href, err)
			continue
		}
		items[i].Pages = pages
	}
}

// pdfPageCount はPDFをダウンロードしてページ数を返す
func pdfPageCount(pdfURL string, client *http.Client, userAgent string) (int, error) {
	req, err := http.NewRequest("GET", pdfURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// PDFはシーク可能なリーダーが必要なため一度メモリに読む
	pdfData, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}

	return pdfReader.NumPage(), nil
}
