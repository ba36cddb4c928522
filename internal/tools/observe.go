package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/thebluefowl/s3toolbox/internal/metrics"
)

// Observe returns middleware that tags every tool call with a request id,
// logs its outcome and records it in m. It never changes the result.
func Observe(log zerolog.Logger, m *metrics.Metrics) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name := request.Params.Name
			reqLog := log.With().
				Str("request_id", ksuid.New().String()).
				Str("tool", name).
				Logger()
			ctx = reqLog.WithContext(ctx)

			start := time.Now()
			res, err := next(ctx, request)
			elapsed := time.Since(start)

			if m != nil {
				m.ObserveToolCall(name, elapsed, err)
			}
			if err != nil {
				reqLog.Warn().Err(err).Dur("duration", elapsed).Msg("tool call failed")
			} else {
				reqLog.Debug().Dur("duration", elapsed).Msg("tool call")
			}
			return res, err
		}
	}
}
