// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とWatcherから利用する。
type MetricsCollector interface {
	RecordSlotAdded()
	RecordSlotRemoved()
	RecordSlotMutationFailure()
	RecordBookingSnapshot()
	IncStreamSubscribers()
	DecStreamSubscribers()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	slotAdded         prometheus.Counter
	slotRemoved       prometheus.Counter
	slotMutationFail  prometheus.Counter
	bookingSnapshots  prometheus.Counter
	streamSubscribers prometheus.Gauge
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		slotAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentordesk_slot_added_total",
			Help: "公開された予約枠追加の合計数",
		}),
		slotRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentordesk_slot_removed_total",
			Help: "取り下げられた予約枠削除の合計数",
		}),
		slotMutationFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentordesk_slot_mutation_fail_total",
			Help: "予約枠更新失敗の合計数",
		}),
		bookingSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentordesk_booking_snapshots_total",
			Help: "購読者へ配信された予約ビュースナップショットの合計数",
		}),
		streamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mentordesk_stream_subscribers",
			Help: "現在接続中の予約ビュー購読者数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentordesk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mentordesk_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.slotAdded,
		c.slotRemoved,
		c.slotMutationFail,
		c.bookingSnapshots,
		c.streamSubscribers,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSlotAdded は予約枠の追加を記録する。
func (c *Collector) RecordSlotAdded() {
	c.slotAdded.Inc()
}

// RecordSlotRemoved は予約枠の削除を記録する。
func (c *Collector) RecordSlotRemoved() {
	c.slotRemoved.Inc()
}

// RecordSlotMutationFailure は予約枠更新の失敗を記録する。
func (c *Collector) RecordSlotMutationFailure() {
	c.slotMutationFail.Inc()
}

// RecordBookingSnapshot は予約ビュースナップショットの配信を記録する。
func (c *Collector) RecordBookingSnapshot() {
	c.bookingSnapshots.Inc()
}

// IncStreamSubscribers は購読者数を1増やす。
func (c *Collector) IncStreamSubscribers() {
	c.streamSubscribers.Inc()
}

// DecStreamSubscribers は購読者数を1減らす。
func (c *Collector) DecStreamSubscribers() {
	c.streamSubscribers.Dec()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
