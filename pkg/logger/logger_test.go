package logger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesThroughZap(t *testing.T) {
	RegisterTestingT(t)

	core, logs := observer.New(zap.InfoLevel)
	l := NewWithZap(zap.New(core), "todolist", "")

	l.InfoWithTrace(context.Background(), "HTTP Request", zap.Int("status", 200))
	l.ErrorWithTrace(context.Background(), "Failed to add todo")

	Expect(logs.Len()).To(Equal(2))

	first := logs.All()[0]
	Expect(first.Message).To(Equal("HTTP Request"))
	Expect(first.ContextMap()).To(HaveKeyWithValue("service", "todolist"))
	Expect(first.ContextMap()).To(HaveKeyWithValue("status", int64(200)))
}

func TestLogger_PushesToLoki(t *testing.T) {
	RegisterTestingT(t)

	var (
		mu     sync.Mutex
		pushes []lokiPush
		paths  []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var push lokiPush
		json.Unmarshal(body, &push)

		mu.Lock()
		pushes = append(pushes, push)
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	l := NewWithZap(zap.NewNop(), "todolist", server.URL+"/")
	l.WarnWithTrace(context.Background(), "Rate limit exceeded", zap.String("path", "/add"))

	Expect(l.Sync()).To(Succeed())

	mu.Lock()
	defer mu.Unlock()

	Expect(paths).To(Equal([]string{"/loki/api/v1/push"}))
	Expect(pushes).To(HaveLen(1))
	Expect(pushes[0].Streams).To(HaveLen(1))

	stream := pushes[0].Streams[0]
	Expect(stream.Stream).To(HaveKeyWithValue("level", "warn"))
	Expect(stream.Values).To(HaveLen(1))

	var line map[string]any
	Expect(json.Unmarshal([]byte(stream.Values[0][1]), &line)).To(Succeed())
	Expect(line).To(HaveKeyWithValue("msg", "Rate limit exceeded"))
	Expect(line).To(HaveKeyWithValue("path", "/add"))
	Expect(line).To(HaveKeyWithValue("service", "todolist"))
}

func TestNewNop(t *testing.T) {
	RegisterTestingT(t)

	l := NewNop()
	l.InfoWithTrace(context.Background(), "ignored")

	Expect(l.Sync()).To(Succeed())
}

func TestLogger_LokiQueueIsBounded(t *testing.T) {
	RegisterTestingT(t)

	var (
		mu       sync.Mutex
		received int
	)

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release

		body, _ := io.ReadAll(r.Body)

		var push lokiPush
		json.Unmarshal(body, &push)

		mu.Lock()
		for _, stream := range push.Streams {
			received += len(stream.Values)
		}
		mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	core, logs := observer.New(zap.InfoLevel)
	l := newWithQueue(zap.New(core), "todolist", server.URL, 1)

	for i := 0; i < 3; i++ {
		l.InfoWithTrace(context.Background(), "Todo added", zap.Int("n", i))
	}

	dropped := l.Dropped()
	Expect(dropped).To(BeNumerically(">=", 1))

	close(release)
	Expect(l.Sync()).To(Succeed())

	mu.Lock()
	defer mu.Unlock()

	Expect(int64(received)).To(Equal(3 - dropped))
	Expect(logs.FilterMessage("Loki queue overflowed, log lines were not mirrored").Len()).To(Equal(1))
}

func TestLogger_BatchesByLevel(t *testing.T) {
	RegisterTestingT(t)

	var pushes []lokiPush

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var push lokiPush
		json.Unmarshal(body, &push)
		pushes = append(pushes, push)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	l := &Logger{ServiceName: "todolist", lokiURL: server.URL, httpClient: server.Client()}
	now := time.Now()

	l.push([]lokiEntry{
		{level: zap.InfoLevel, at: now, line: "a"},
		{level: zap.ErrorLevel, at: now, line: "b"},
		{level: zap.InfoLevel, at: now, line: "c"},
	})

	Expect(pushes).To(HaveLen(1))
	Expect(pushes[0].Streams).To(HaveLen(2))
	Expect(pushes[0].Streams[0].Stream).To(HaveKeyWithValue("level", "info"))
	Expect(pushes[0].Streams[0].Values).To(HaveLen(2))
	Expect(pushes[0].Streams[1].Stream).To(HaveKeyWithValue("level", "error"))
	Expect(pushes[0].Streams[1].Values[0][1]).To(Equal("b"))
}
