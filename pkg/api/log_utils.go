package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/secrets"
)

// LogBodyLimit caps logged bodies; cmd/app overrides it from TRG_LOG_BODY_LIMIT.
var LogBodyLimit = 4096

func LogSafe(b []byte) []byte {
	if len(b) <= LogBodyLimit {
		return b
	}
	out := make([]byte, 0, LogBodyLimit+15)
	out = append(out, b[:LogBodyLimit]...)
	return append(out, "... [truncated]"...)
}

func LogRequest(logger *zap.Logger, tag string, r *http.Request, body []byte) time.Time {
	logger.Info(tag+"_request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote", r.RemoteAddr),
		zap.Any("headers", secrets.RedactHeaders(r.Header)),
		zap.ByteString("body", LogSafe(body)),
	)
	return time.Now()
}

func LogResponse(logger *zap.Logger, tag string, status int, body []byte, started time.Time) {
	logger.Info(tag+"_response",
		zap.Int("status", status),
		zap.Int64("latency_ms", time.Since(started).Milliseconds()),
		zap.ByteString("body", LogSafe(body)),
	)
}
