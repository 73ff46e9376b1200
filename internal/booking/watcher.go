package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/mentordesk/internal/model"
)

// NotifyChannel はbookingsテーブルのトリガーがNOTIFYするチャネル名。
// ペイロードは変更対象のmentor_id。
const NotifyChannel = "bookings_changed"

// SnapshotEvent はある時点の予約ビュー全体を表すイベント。
// 変更のたびに差分ではなく現在の一致集合全体を配信する。
type SnapshotEvent struct {
	MentorID string
	Bookings []model.Booking
}

// NotificationSource は変更通知の供給元インターフェース。
// 本番ではpq.ListenerをラップしたPQNotificationSourceを使い、
// テストでは合成通知を流すチャネルで代替する。
type NotificationSource interface {
	// Notifications は変更のあったmentor_idを届けるチャネルを返す。
	Notifications() <-chan string
	// Close は供給元を閉じる。
	Close() error
}

// PQNotificationSource はPostgreSQLのLISTEN/NOTIFYによる通知供給元。
type PQNotificationSource struct {
	listener  *pq.Listener
	out       chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewPQNotificationSource はLISTENを開始した通知供給元を生成する。
// 接続断時はminReconnect〜maxReconnectの間隔で自動再接続する。
func NewPQNotificationSource(databaseURL string, minReconnect, maxReconnect time.Duration) (*PQNotificationSource, error) {
	listener := pq.NewListener(databaseURL, minReconnect, maxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				slog.Error("booking listener event",
					slog.Int("event", int(ev)),
					slog.String("error", err.Error()),
				)
			}
		})

	if err := listener.Listen(NotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to LISTEN on %s: %w", NotifyChannel, err)
	}

	s := &PQNotificationSource{
		listener: listener,
		out:      make(chan string),
		done:     make(chan struct{}),
	}

	go pumpNotifications(listener.Notify, s.out, s.done)

	return s, nil
}

// pumpNotifications はpq.Listenerの通知を文字列ペイロードに変換して転送する。
// 再接続時にpqはnil通知を流すため、その場合もペイロードなしの
// 再同期シグナル（空文字列）として転送する。
// 受信側が既に停止していてもCloseで抜けられるようdoneを監視する。
func pumpNotifications(notify <-chan *pq.Notification, out chan<- string, done <-chan struct{}) {
	defer close(out)
	for n := range notify {
		payload := ""
		if n != nil {
			payload = n.Extra
		}
		select {
		case out <- payload:
		case <-done:
			return
		}
	}
}

// Notifications は変更通知チャネルを返す。
func (s *PQNotificationSource) Notifications() <-chan string {
	return s.out
}

// Close は通知供給元を閉じ、転送ゴルーチンを停止させる。複数回呼んでも安全。
func (s *PQNotificationSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.listener.Close()
}

// compile-time interface check
var _ NotificationSource = (*PQNotificationSource)(nil)

// Lister は予約ビューの再取得インターフェース。Serviceの部分集合。
type Lister interface {
	ListByMentor(ctx context.Context, mentorID string) ([]model.Booking, error)
}

// WatcherMetrics は予約ビュー配信のメトリクス記録インターフェース。
type WatcherMetrics interface {
	RecordBookingSnapshot()
	IncStreamSubscribers()
	DecStreamSubscribers()
}

// Watcher はメンターごとの予約ビュー購読を管理し、
// ストアの変更通知のたびに現在の一致集合全体を購読者へ配信する。
// 購読はダッシュボードセッションごとに1つ確立され、接続の終了とともに解除される。
type Watcher struct {
	lister  Lister
	source  NotificationSource
	logger  *slog.Logger
	metrics WatcherMetrics // nilの場合は記録しない

	mu     sync.Mutex
	subs   map[string]map[int]chan SnapshotEvent // mentorID -> subscriberID -> channel
	nextID int
}

// NewWatcher はWatcherを生成する。metricsはnilでもよい。
func NewWatcher(lister Lister, source NotificationSource, logger *slog.Logger, metrics WatcherMetrics) *Watcher {
	return &Watcher{
		lister:  lister,
		source:  source,
		logger:  logger,
		metrics: metrics,
		subs:    make(map[string]map[int]chan SnapshotEvent),
	}
}

// Run は変更通知を処理するメインループ。ctxがキャンセルされるまでブロックする。
// 通知のペイロード（mentor_id）に購読者がいる場合のみ再取得・配信する。
// 空ペイロードは再同期シグナルとして全購読メンターに配信する。
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case mentorID, ok := <-w.source.Notifications():
			if !ok {
				w.logger.Info("booking notification source closed")
				return
			}
			if mentorID == "" {
				for _, id := range w.subscribedMentors() {
					w.refresh(ctx, id)
				}
				continue
			}
			w.refresh(ctx, mentorID)
		}
	}
}

// Subscribe は指定メンターの予約ビュー購読を開始する。
// 現在のスナップショットを最初のイベントとして即座に配信し、
// 以後は変更のたびに新しいスナップショットを配信する。
// 返却したunsubscribe関数の呼び出しで購読を解除する。
func (w *Watcher) Subscribe(ctx context.Context, mentorID string) (<-chan SnapshotEvent, func(), error) {
	bookings, err := w.lister.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, nil, fmt.Errorf("初期スナップショットの取得に失敗しました: %w", err)
	}

	// バッファ1: 消費が追いつかない場合は古いスナップショットを捨てて
	// 最新のみを保持する（last-render-wins）
	ch := make(chan SnapshotEvent, 1)
	ch <- SnapshotEvent{MentorID: mentorID, Bookings: bookings}

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	if w.subs[mentorID] == nil {
		w.subs[mentorID] = make(map[int]chan SnapshotEvent)
	}
	w.subs[mentorID][id] = ch
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.IncStreamSubscribers()
	}

	unsubscribe := func() {
		w.mu.Lock()
		if chans, ok := w.subs[mentorID]; ok {
			if _, ok := chans[id]; ok {
				delete(chans, id)
				if len(chans) == 0 {
					delete(w.subs, mentorID)
				}
				if w.metrics != nil {
					w.metrics.DecStreamSubscribers()
				}
			}
		}
		w.mu.Unlock()
	}

	return ch, unsubscribe, nil
}

// SubscriberCount は指定メンターの現在の購読者数を返す。テスト用。
func (w *Watcher) SubscriberCount(mentorID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs[mentorID])
}

// subscribedMentors は現在購読者のいるメンターID一覧を返す。
func (w *Watcher) subscribedMentors() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	return ids
}

// refresh は指定メンターの一致集合を再取得し、全購読者に配信する。
// 購読者がいない場合は再取得しない。
func (w *Watcher) refresh(ctx context.Context, mentorID string) {
	w.mu.Lock()
	hasSubs := len(w.subs[mentorID]) > 0
	w.mu.Unlock()
	if !hasSubs {
		return
	}

	bookings, err := w.lister.ListByMentor(ctx, mentorID)
	if err != nil {
		// 単発失敗は配信をスキップするのみ。次の変更通知で再試行される。
		w.logger.Error("failed to refresh booking view",
			slog.String("mentor_id", mentorID),
			slog.String("error", err.Error()),
		)
		return
	}

	if w.metrics != nil {
		w.metrics.RecordBookingSnapshot()
	}

	ev := SnapshotEvent{MentorID: mentorID, Bookings: bookings}

	w.mu.Lock()
	for _, ch := range w.subs[mentorID] {
		// 未消費の古いスナップショットがあれば捨てて最新に置き換える
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
	w.mu.Unlock()
}
