package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Refresher はカタログスナップショットの定期リフレッシュを行う。
// ワーカープロセスで起動され、キャッシュを温めておくことで
// APIサーバー側のキャッシュミスを減らす。
type Refresher struct {
	cache  *Cache
	logger *slog.Logger
}

// NewRefresher はRefresherを生成する。
func NewRefresher(cache *Cache, logger *slog.Logger) *Refresher {
	return &Refresher{cache: cache, logger: logger}
}

// Start は指定間隔のティッカーでリフレッシュを開始する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("カタログリフレッシャーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("カタログリフレッシュに失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("カタログリフレッシャーを停止しました")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("カタログリフレッシュに失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はスナップショットを1回リフレッシュする。
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	if err := r.cache.Refresh(ctx); err != nil {
		return err
	}

	r.logger.Info("カタログリフレッシュが完了しました",
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
