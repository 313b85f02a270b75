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
// 認証ハンドラー、カタログキャッシュ、ワーカーから利用する。
type MetricsCollector interface {
	RecordAuthSuccess(operation string)
	RecordAuthFailure(operation string)
	RecordCatalogCacheHit(resource string)
	RecordCatalogCacheMiss(resource string)
	RecordCatalogFetchLatency(duration time.Duration)
	RecordCatalogFetchFailure(resource string)
	RecordHTTPStatus(statusCode int)
	RecordSessionsPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authSuccess         *prometheus.CounterVec
	authFail            *prometheus.CounterVec
	catalogCacheHit     *prometheus.CounterVec
	catalogCacheMiss    *prometheus.CounterVec
	catalogFetchLatency prometheus.Histogram
	catalogFetchFail    *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	sessionsPurged      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_auth_success_total",
			Help: "認証操作成功の合計数（操作別）",
		}, []string{"operation"}),
		authFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_auth_fail_total",
			Help: "認証操作失敗の合計数（操作別）",
		}, []string{"operation"}),
		catalogCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_catalog_cache_hit_total",
			Help: "カタログキャッシュヒットの合計数（リソース別）",
		}, []string{"resource"}),
		catalogCacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_catalog_cache_miss_total",
			Help: "カタログキャッシュミスの合計数（リソース別）",
		}, []string{"resource"}),
		catalogFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grandline_catalog_fetch_latency_seconds",
			Help:    "カタログAPIフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		catalogFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_catalog_fetch_fail_total",
			Help: "カタログAPIフェッチ失敗の合計数（リソース別）",
		}, []string{"resource"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grandline_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grandline_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.authSuccess,
		c.authFail,
		c.catalogCacheHit,
		c.catalogCacheMiss,
		c.catalogFetchLatency,
		c.catalogFetchFail,
		c.httpStatus,
		c.sessionsPurged,
	)

	return c
}

// RecordAuthSuccess は認証操作の成功を記録する。
func (c *Collector) RecordAuthSuccess(operation string) {
	c.authSuccess.WithLabelValues(operation).Inc()
}

// RecordAuthFailure は認証操作の失敗を記録する。
func (c *Collector) RecordAuthFailure(operation string) {
	c.authFail.WithLabelValues(operation).Inc()
}

// RecordCatalogCacheHit はカタログキャッシュヒットを記録する。
func (c *Collector) RecordCatalogCacheHit(resource string) {
	c.catalogCacheHit.WithLabelValues(resource).Inc()
}

// RecordCatalogCacheMiss はカタログキャッシュミスを記録する。
func (c *Collector) RecordCatalogCacheMiss(resource string) {
	c.catalogCacheMiss.WithLabelValues(resource).Inc()
}

// RecordCatalogFetchLatency はカタログAPIフェッチのレイテンシを記録する。
func (c *Collector) RecordCatalogFetchLatency(duration time.Duration) {
	c.catalogFetchLatency.Observe(duration.Seconds())
}

// RecordCatalogFetchFailure はカタログAPIフェッチ失敗を記録する。
func (c *Collector) RecordCatalogFetchFailure(resource string) {
	c.catalogFetchFail.WithLabelValues(resource).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsPurged は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int) {
	c.sessionsPurged.Add(float64(count))
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
