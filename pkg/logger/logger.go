package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"todolist/pkg/tracing"
)

const (
	lokiQueueSize = 1024
	lokiMaxBatch  = 100
)

// Logger writes structured logs through otelzap, so entries logged with a
// context carry trace and span ids, and optionally mirrors them to Loki.
// Loki lines go through a bounded queue drained by a single pusher; lines
// that arrive while the queue is full are dropped and counted.
type Logger struct {
	Logger      *otelzap.Logger
	ServiceName string

	lokiURL    string
	httpClient *http.Client
	encoder    zapcore.Encoder
	queue      chan lokiEntry
	pending    sync.WaitGroup
	dropped    atomic.Int64
}

type lokiEntry struct {
	level zapcore.Level
	at    time.Time
	line  string
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func New(serviceName, lokiURL string) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return NewWithZap(zapLogger, serviceName, lokiURL), nil
}

// NewWithZap wraps an existing zap logger. An empty lokiURL disables pushing.
func NewWithZap(zapLogger *zap.Logger, serviceName, lokiURL string) *Logger {
	return newWithQueue(zapLogger, serviceName, lokiURL, lokiQueueSize)
}

func newWithQueue(zapLogger *zap.Logger, serviceName, lokiURL string, queueSize int) *Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderConfig.TimeKey = "timestamp"

	l := &Logger{
		Logger:      otelzap.New(zapLogger),
		ServiceName: serviceName,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		encoder:     zapcore.NewJSONEncoder(encoderConfig),
	}

	if lokiURL != "" {
		l.lokiURL = strings.TrimRight(lokiURL, "/") + "/loki/api/v1/push"
		l.queue = make(chan lokiEntry, queueSize)
		go l.runPusher()
	}

	return l
}

func NewNop() *Logger {
	return NewWithZap(zap.NewNop(), "todolist", "")
}

func (l *Logger) InfoWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.logWithTrace(ctx, zapcore.InfoLevel, msg, fields...)
}

func (l *Logger) WarnWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.logWithTrace(ctx, zapcore.WarnLevel, msg, fields...)
}

func (l *Logger) ErrorWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.logWithTrace(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (l *Logger) logWithTrace(ctx context.Context, level zapcore.Level, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("service", l.ServiceName))

	switch level {
	case zapcore.WarnLevel:
		l.Logger.Ctx(ctx).Warn(msg, fields...)
	case zapcore.ErrorLevel:
		l.Logger.Ctx(ctx).Error(msg, fields...)
	default:
		l.Logger.Ctx(ctx).Info(msg, fields...)
	}

	if l.lokiURL == "" {
		return
	}

	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		fields = append(fields,
			zap.String("trace_id", traceID),
			zap.String("span_id", tracing.GetSpanID(ctx)))
	}

	now := time.Now()
	line, err := l.encodeLine(now, level, msg, fields)
	if err != nil {
		l.Logger.Ctx(ctx).Error("Failed to encode log line for Loki", zap.Error(err))
		return
	}

	l.pending.Add(1)
	select {
	case l.queue <- lokiEntry{level: level, at: now, line: line}:
	default:
		l.pending.Done()
		l.dropped.Add(1)
	}
}

// Dropped reports how many lines were not mirrored to Loki because the queue was full.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

func (l *Logger) runPusher() {
	batch := make([]lokiEntry, 0, lokiMaxBatch)

	for entry := range l.queue {
		batch = append(batch[:0], entry)

	drain:
		for len(batch) < lokiMaxBatch {
			select {
			case next := <-l.queue:
				batch = append(batch, next)
			default:
				break drain
			}
		}

		l.push(batch)

		for range batch {
			l.pending.Done()
		}
	}
}

func (l *Logger) encodeLine(now time.Time, level zapcore.Level, msg string, fields []zap.Field) (string, error) {
	buf, err := l.encoder.EncodeEntry(zapcore.Entry{
		Level:   level,
		Time:    now,
		Message: msg,
	}, fields)
	if err != nil {
		return "", err
	}
	defer buf.Free()

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (l *Logger) push(batch []lokiEntry) {
	streams := make(map[zapcore.Level]*lokiStream)
	var order []zapcore.Level

	for _, entry := range batch {
		stream, ok := streams[entry.level]
		if !ok {
			stream = &lokiStream{
				Stream: map[string]string{
					"service": l.ServiceName,
					"level":   entry.level.String(),
				},
			}
			streams[entry.level] = stream
			order = append(order, entry.level)
		}

		stream.Values = append(stream.Values, []string{strconv.FormatInt(entry.at.UnixNano(), 10), entry.line})
	}

	payload := lokiPush{Streams: make([]lokiStream, 0, len(order))}
	for _, level := range order {
		payload.Streams = append(payload.Streams, *streams[level])
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, l.lokiURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)
}

// Sync waits until queued Loki lines are pushed and flushes the zap core.
func (l *Logger) Sync() error {
	l.pending.Wait()

	if dropped := l.Dropped(); dropped > 0 {
		l.Logger.Warn("Loki queue overflowed, log lines were not mirrored", zap.Int64("dropped", dropped))
	}

	return l.Logger.Sync()
}
