package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements QueryHooks, CacheHooks and HTTPHooks by writing every
// event to a logger at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

// Hooks returns h registered for every event category.
func (h *LogHooks) Hooks() Hooks {
	return Hooks{Query: h, Cache: h, HTTP: h}
}

func (h *LogHooks) OnFetchStart(_ context.Context, key string, background bool) {
	h.logger.Debug("fetch started", "key", key, "background", background)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, key string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "key", key, "elapsed", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("fetch succeeded", "key", key, "elapsed", d.Round(time.Millisecond))
}

func (h *LogHooks) OnDeduplicated(_ context.Context, key string) {
	h.logger.Debug("joined in-flight fetch", "key", key)
}

func (h *LogHooks) OnFresh(_ context.Context, key string) {
	h.logger.Debug("served fresh data", "key", key)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("store hit", "backend", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("store miss", "backend", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("store write", "backend", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ QueryHooks = (*LogHooks)(nil)
	_ CacheHooks = (*LogHooks)(nil)
	_ HTTPHooks  = (*LogHooks)(nil)
)
