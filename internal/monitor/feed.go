// =============================================================================
// feed.go - RSS/Atomフィード収集
// =============================================================================
//
// このファイルはHTMLスクレイピングの代替収集経路を提供します。
// 開示サイトが公告のRSS/Atomフィードを公開している場合、
// REPORT_FEED_URL / -feed を設定するとこちらが使われます。
//
// 抽出ルールはHTML経路と揃える:
//   - タイトルに"报告"を含むエントリのみ対象
//   - hrefはエントリのリンク（フィードURL基準で絶対化）
//   - 日付は公開日時をYYYY-MM-DDに整形（無ければタイトル内の日付パターン）
//   - href重複は先勝ちで排除、上限topN件
//
// =============================================================================
package monitor

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

// collectFromFeed はRSS/AtomフィードからReportItemを収集する
func collectFromFeed(feedURL string, topN int, cfg SourceConfig) ([]ReportItem, error) {
	if topN <= 0 {
		return nil, nil
	}

	feed, err := fetchFeed(feedURL, cfg)
	if err != nil {
		return nil, err
	}

	items := make([]ReportItem, 0, topN)
	seen := make(map[string]bool)

	for _, entry := range feed.Items {
		if len(items) >= topN {
			break
		}

		title := normalizeWhitespace(entry.Title)
		if !strings.Contains(title, markerReport) {
			continue
		}

		href := resolveURL(feedURL, entry.Link)
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true

		date := ""
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.Format("2006-01-02")
		} else {
			date = reDate.FindString(title)
		}

		items = append(items, ReportItem{Title: title, Date: date, Href: href})
	}

	debugf("collectFromFeed: %d items from %s", len(items), feedURL)
	return items, nil
}

// fetchFeed はフィードを取得してgofeedでパースする
func fetchFeed(feedURL string, cfg SourceConfig) (*gofeed.Feed, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	req, err := http.NewRequest("GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}
	return feed, nil
}
