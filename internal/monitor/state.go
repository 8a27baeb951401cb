// =============================================================================
// state.go - 既読状態ストア
// =============================================================================
//
// このファイルは既読href集合（SeenState）の永続化と差分計算を提供します。
//
// 【契約】
//   - Load: ファイルが存在しない場合は空の状態を返す（初回実行の正常系）
//   - Save: 一時ファイルに書いてからリネームし、全量を置き換える。
//           書き込み途中でクラッシュしても既存の状態ファイルは壊れない
//   - Diff: アイテム列を「未読」と「既読」に正確に分割する
//
// 状態はプロセス内で持ち越さない。毎回の実行でLoadし、最大1回Saveする。
//
// =============================================================================
package monitor

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateStore は既読状態ファイルの読み書きを担当する
type StateStore struct {
	path string
}

// NewStateStore は指定パスを使う既読状態ストアを作成する
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load は永続化された既読状態を読み込む
//
// ファイルが存在しない場合はエラーではなく空のSeenStateを返す。
// それ以外の読み込み失敗（パーミッション、壊れたJSON）はエラー。
func (st *StateStore) Load() (*SeenState, error) {
	var state SeenState
	if err := readJSONFile(st.path, &state); err != nil {
		if os.IsNotExist(err) {
			return &SeenState{}, nil
		}
		return nil, fmt.Errorf("failed to load state %s: %w", st.path, err)
	}
	return &state, nil
}

// Save は既読状態を全量書き込みで永続化する
//
// 親ディレクトリが無ければ作成する。一時ファイルへの書き込みと
// リネームの2段階にすることで、追記や途中切れで前回の状態を
// 破壊することがない。
func (st *StateStore) Save(state *SeenState) error {
	dir := filepath.Dir(st.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state dir %s: %w", dir, err)
		}
	}

	tmp := st.path + ".tmp"
	if err := writeJSONFile(tmp, state); err != nil {
		return fmt.Errorf("failed to write state %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("failed to replace state %s: %w", st.path, err)
	}
	return nil
}

// Diff はアイテム列を未読と既読に分割する
//
// 【戻り値】
//   - newItems:  hrefがstateに未登録のアイテム（入力順を保持）
//   - seenItems: hrefが登録済みのアイテム
//
// 2つの戻り値は入力を漏れ・重複なく覆う。
func Diff(state *SeenState, items []ReportItem) (newItems, seenItems []ReportItem) {
	for _, it := range items {
		if state.Contains(it.Href) {
			seenItems = append(seenItems, it)
		} else {
			newItems = append(newItems, it)
		}
	}
	return newItems, seenItems
}
