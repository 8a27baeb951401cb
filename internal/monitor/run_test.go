package monitor

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runPageHTML は1件の報告行を持つ最小の一覧ページ
const runPageHTML = `<html><body>
<div class="item">
  <h3>2024年第三季度报告</h3>
  <span>2024-10-30</span>
  <a href="/r/2024q3.pdf">下载</a>
</div>
</body></html>`

// webhookRecorder は受信したFeishuメッセージを記録するテストダブル
type webhookRecorder struct {
	srv    *httptest.Server
	calls  int32
	status int32 // 返すHTTPステータス
	last   atomic.Value
}

func newWebhookRecorder(t *testing.T) *webhookRecorder {
	t.Helper()
	rec := &webhookRecorder{status: http.StatusOK}
	rec.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rec.calls, 1)
		body, _ := io.ReadAll(r.Body)
		var msg feishuMessage
		_ = json.Unmarshal(body, &msg)
		rec.last.Store(msg)
		w.WriteHeader(int(atomic.LoadInt32(&rec.status)))
	}))
	t.Cleanup(rec.srv.Close)
	return rec
}

func (rec *webhookRecorder) callCount() int {
	return int(atomic.LoadInt32(&rec.calls))
}

func (rec *webhookRecorder) lastMessage() feishuMessage {
	msg, _ := rec.last.Load().(feishuMessage)
	return msg
}

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, pageURL, webhookURL string) *Config {
	t.Helper()
	return &Config{
		Source: SourceConfig{
			PageURL:   pageURL,
			TopN:      20,
			UserAgent: "report-relay-test/1.0",
			Timeout:   5 * time.Second,
		},
		State: StateConfig{
			Path: filepath.Join(t.TempDir(), "state.json"),
		},
		Notify: NotifyConfig{
			WebhookURL: webhookURL,
			Timeout:    5 * time.Second,
		},
	}
}

func readState(t *testing.T, path string) *SeenState {
	t.Helper()
	state, err := NewStateStore(path).Load()
	require.NoError(t, err)
	return state
}

// シナリオA: 空の状態 + 抽出1件 → 初期化のみ、通知なし
func TestRun_FirstRunInitializesWithoutNotify(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Initialized state; no notifications sent.", result.Message)
	assert.Equal(t, 0, hook.callCount(), "first run must not notify")

	state := readState(t, cfg.State.Path)
	assert.Equal(t, []string{page.URL + "/r/2024q3.pdf"}, state.SeenHrefs)
}

// シナリオB: 状態に既にhrefがある → 新着なし、通知なし、状態不変
func TestRun_NoNewItems(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)

	seeded := &SeenState{SeenHrefs: []string{page.URL + "/r/2024q3.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))
	before, err := os.ReadFile(cfg.State.Path)
	require.NoError(t, err)

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "No new items.", result.Message)
	assert.Equal(t, 0, result.NewItems)
	assert.Equal(t, 0, hook.callCount())

	after, err := os.ReadFile(cfg.State.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "state file must be untouched")
}

// 定常系: 既読1件 + ページに新着1件 → 1件通知して既読に追記
func TestRun_NotifiesNewItems(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)

	seeded := &SeenState{SeenHrefs: []string{page.URL + "/r/old.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Notified 1 new items.", result.Message)
	assert.Equal(t, 1, result.NewItems)
	assert.False(t, result.NotifyFailed)
	require.Equal(t, 1, hook.callCount())

	msg := hook.lastMessage()
	assert.Equal(t, "text", msg.MsgType)
	assert.Contains(t, msg.Content.Text, "2024年第三季度报告")
	assert.Contains(t, msg.Content.Text, "2024-10-30")

	// 既存順を保ち、新規hrefを末尾に追加
	state := readState(t, cfg.State.Path)
	assert.Equal(t, []string{page.URL + "/r/old.pdf", page.URL + "/r/2024q3.pdf"}, state.SeenHrefs)
}

// 通知失敗でも既読化は行われる（at-most-once）
func TestRun_NotifyFailureStillMarksSeen(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	atomic.StoreInt32(&hook.status, http.StatusInternalServerError)
	cfg := testConfig(t, page.URL, hook.srv.URL)

	seeded := &SeenState{SeenHrefs: []string{page.URL + "/r/old.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))

	result, err := Run(cfg)
	require.NoError(t, err, "notify failure must not abort the run")

	assert.True(t, result.NotifyFailed)
	assert.Equal(t, 1, result.NewItems)
	assert.Contains(t, result.Message, "notify failed")

	state := readState(t, cfg.State.Path)
	assert.Contains(t, state.SeenHrefs, page.URL+"/r/2024q3.pdf")
}

// force-notify: 最新1件のみ通知し、状態は一切変更しない
func TestRun_ForceNotifyNeverTouchesState(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)
	cfg.Run.ForceNotify = true

	seeded := &SeenState{SeenHrefs: []string{page.URL + "/r/old.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))
	before, err := os.ReadFile(cfg.State.Path)
	require.NoError(t, err)

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Force-notify sent (state not changed).", result.Message)
	assert.Equal(t, 1, hook.callCount())
	assert.Contains(t, hook.lastMessage().Content.Text, "2024年第三季度报告")

	after, err := os.ReadFile(cfg.State.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// force-notify: 状態ファイルが無い場合も作られない
func TestRun_ForceNotifyDoesNotCreateState(t *testing.T) {
	page := servePage(t, runPageHTML)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)
	cfg.Run.ForceNotify = true

	_, err := Run(cfg)
	require.NoError(t, err)

	_, err = os.Stat(cfg.State.Path)
	assert.True(t, os.IsNotExist(err))
}

// force-notify: 抽出0件なら通知もしない
func TestRun_ForceNotifyWithNoItems(t *testing.T) {
	page := servePage(t, "<html><body>施工中</body></html>")
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)
	cfg.Run.ForceNotify = true

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "No items available for force notify.", result.Message)
	assert.Equal(t, 0, hook.callCount())
}

// 空抽出は初期化扱いにならない（初期化には最低1件の抽出が必要）
func TestRun_EmptyExtractionIsNotFirstRun(t *testing.T) {
	page := servePage(t, "<html><body>施工中</body></html>")
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, page.URL, hook.srv.URL)

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "No new items.", result.Message)
	assert.Equal(t, 0, hook.callCount())
	_, err = os.Stat(cfg.State.Path)
	assert.True(t, os.IsNotExist(err), "empty extraction must not initialize state")
}

// 取得が全滅した場合は中断し、状態は変更されない
func TestRun_FetchFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, srv.URL, hook.srv.URL)

	_, err := Run(cfg)
	require.Error(t, err)
	assert.Equal(t, 0, hook.callCount())
	_, statErr := os.Stat(cfg.State.Path)
	assert.True(t, os.IsNotExist(statErr))
}

// Webhook未設定でも検出と既読化は行われる
func TestRun_WithoutWebhookStillTracksState(t *testing.T) {
	page := servePage(t, runPageHTML)
	cfg := testConfig(t, page.URL, "")

	seeded := &SeenState{SeenHrefs: []string{page.URL + "/r/old.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Notified 1 new items.", result.Message)
	assert.Contains(t, readState(t, cfg.State.Path).SeenHrefs, page.URL+"/r/2024q3.pdf")
}

// フィードモードでも同じ差分・通知・永続化パイプラインが動く
func TestRun_FeedMode(t *testing.T) {
	feed := serveFeed(t)
	hook := newWebhookRecorder(t)
	cfg := testConfig(t, "", hook.srv.URL)
	cfg.Source.FeedURL = feed.URL

	seeded := &SeenState{SeenHrefs: []string{feed.URL + "/r/2024h1.pdf"}}
	require.NoError(t, NewStateStore(cfg.State.Path).Save(seeded))

	result, err := Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewItems)
	require.Equal(t, 1, hook.callCount())
	assert.Contains(t, hook.lastMessage().Content.Text, "2024年第三季度报告")
}
