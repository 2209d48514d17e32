package engine

import (
	"io"
	"log/slog"
	"os"
	"time"

	"rpc-pool-go/internal/recovery"
)

// Logger 全局结构化日志器
var Logger = slog.Default()

// InitLogger 初始化结构化日志
func InitLogger(level, format string) {
	Logger = NewLogger(os.Stderr, level, format)
	recovery.Logger = Logger
	slog.SetDefault(Logger)
}

// NewLogger builds a JSON (default) or text logger writing to w.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LogEndpointExcluded 记录被剔除的节点
func LogEndpointExcluded(l *slog.Logger, outcome ProbeOutcome) {
	reason := "unknown"
	if outcome.Err != nil {
		reason = outcome.Err.Error()
	}
	l.Debug("endpoint_excluded",
		slog.String("url", maskURL(outcome.Endpoint.URI)),
		slog.String("transport", outcome.Endpoint.Transport.String()),
		slog.String("reason", reason),
	)
}

// LogPOAQuirk 记录 POA 链特征
func LogPOAQuirk(l *slog.Logger, ep Endpoint) {
	l.Info("poa_quirk_detected",
		slog.String("url", maskURL(ep.URI)),
		slog.String("mode", "relaxed_extra_data"),
	)
}

// LogPoolBuilt 记录一次构建结果
func LogPoolBuilt(l *slog.Logger, transport string, report BuildReport) {
	l.Info("pool_built",
		slog.String("transport", transport),
		slog.Int("candidates", report.Candidates),
		slog.Int("healthy", report.Healthy),
		slog.Int("excluded", len(report.Excluded)),
		slog.Float64("elapsed_seconds", report.Elapsed.Seconds()),
	)
}

// LogMissingLatency flags a healthy endpoint that produced no latency sample.
func LogMissingLatency(l *slog.Logger, ep Endpoint) {
	l.Warn("healthy_endpoint_missing_latency",
		slog.String("url", maskURL(ep.URI)),
		slog.Time("observed_at", time.Now()),
	)
}
