// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはシステム全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化
//   - URL操作:   相対URLの絶対化
//   - JSON操作:  ファイル読み書き
//   - ログ出力:  警告・情報メッセージの出力（stderr）
//
// =============================================================================
package monitor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// スペース・タブ・改行の連続は1つのスペースになり、先頭・末尾の空白は
// 除去される。空文字列は空文字列のまま返す（常に成功する純粋関数）。
//
// 使用例:
//
//	normalizeWhitespace("  2024年  第三季度\n报告  ")  // "2024年 第三季度 报告"
//
// 【処理の流れ】
//  1. strings.Fields: 空白で分割してスライスに（連続空白は無視される）
//  2. strings.Join: スペースで再結合
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// -----------------------------------------------------------------------------
// URL操作関数
// -----------------------------------------------------------------------------

// resolveURL は相対URLを絶対URLに変換
//
// ベースURLと相対URL（href）から完全な絶対URLを生成する。
// 既に絶対URLの場合はそのまま返す。
//
// 引数:
//
//	baseURL: 基準となるページのURL
//	href: 相対または絶対URL
//
// 戻り値:
//
//	解決された絶対URL（エラー時は空文字列）
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	// 相対URLを絶対URLに解決
	return base.ResolveReference(u).String()
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// writeJSONFile は任意のデータをJSON形式でファイルに保存する
//
// 2スペースインデントの読みやすい形式で書き出す。
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// readJSONFile はJSONファイルを読み込んで指定した型に変換する
//
// 引数:
//
//	path: 読み込むファイルパス
//	out:  変換先の変数（ポインタで渡す必要がある）
func readJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// -----------------------------------------------------------------------------
// ログ出力関数
// -----------------------------------------------------------------------------
//
// 標準出力（stdout）は実行結果のステータス行に使用するため、
// ログメッセージは標準エラー出力（stderr）に出力する。
// -----------------------------------------------------------------------------

// warnf は警告メッセージを標準エラー出力に書き出す
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
}

// infof は情報メッセージを標準エラー出力に書き出す
func infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
}

// errorf はエラーメッセージを標準エラー出力に書き出す
//
// 【注意】この関数はログ出力のみでプログラムは終了しない
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// debugf はDEBUG_SCRAPING=1のときのみデバッグメッセージを出力する
func debugf(format string, args ...any) {
	if os.Getenv("DEBUG_SCRAPING") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
}
