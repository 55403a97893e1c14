package oracle

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/store"
	"github.com/abhisek/mathverify/internal/verify"
)

// LoggingGateway records every oracle call as a store event and a log line.
type LoggingGateway struct {
	inner  Gateway
	events store.EventRepo
	logger *zap.Logger
}

// WithLogging wraps a Gateway with event logging. A nil repo skips
// persistence; a nil logger is replaced by a no-op logger.
func WithLogging(gw Gateway, repo store.EventRepo, logger *zap.Logger) Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingGateway{inner: gw, events: repo, logger: logger}
}

func (l *LoggingGateway) VerifySingle(ctx context.Context, kind verify.Kind, payload map[string]any) (verify.Outcome, error) {
	start := time.Now()
	out, err := l.inner.VerifySingle(ctx, kind, payload)

	data := store.OracleRequestEventData{
		Operation:   "single",
		Kind:        string(kind),
		Jobs:        1,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: marshal(singleRequest{Kind: kind, Payload: payload}),
	}
	if err == nil {
		data.ResponseBody = marshal(out)
	}
	l.record(ctx, data, err)
	return out, err
}

func (l *LoggingGateway) VerifyBatch(ctx context.Context, jobs []Job) ([]verify.Outcome, error) {
	start := time.Now()
	out, err := l.inner.VerifyBatch(ctx, jobs)

	data := store.OracleRequestEventData{
		Operation:   "batch",
		Kind:        batchKind(jobs),
		Jobs:        len(jobs),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: marshal(batchRequest{Jobs: jobs}),
	}
	if err == nil {
		data.ResponseBody = marshal(batchResponse{Results: out})
	}
	l.record(ctx, data, err)
	return out, err
}

func (l *LoggingGateway) SupportsBatch(ctx context.Context) bool {
	return l.inner.SupportsBatch(ctx)
}

func (l *LoggingGateway) record(ctx context.Context, data store.OracleRequestEventData, err error) {
	fields := []zap.Field{
		zap.String("op", data.Operation),
		zap.String("kind", data.Kind),
		zap.Int("jobs", data.Jobs),
		zap.Int64("latency_ms", data.LatencyMs),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.logger.Warn("oracle request failed", append(fields, zap.Error(err))...)
	} else {
		l.logger.Debug("oracle request", fields...)
	}

	if l.events == nil {
		return
	}
	if logErr := l.events.AppendOracleRequest(ctx, data); logErr != nil {
		l.logger.Warn("failed to record oracle request event", zap.Error(logErr))
	}
}

// batchKind returns the shared kind of a batch, or "mixed".
func batchKind(jobs []Job) string {
	if len(jobs) == 0 {
		return ""
	}
	k := jobs[0].Kind
	for _, j := range jobs[1:] {
		if j.Kind != k {
			return "mixed"
		}
	}
	return string(k)
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
