package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// LogRecord is one decoded JSON log line.
type LogRecord map[string]any

// Msg returns the record's message.
func (r LogRecord) Msg() string {
	s, _ := r[slog.MessageKey].(string)
	return s
}

// Level returns the record's level name.
func (r LogRecord) Level() string {
	s, _ := r[slog.LevelKey].(string)
	return s
}

// LogSink captures slog output as JSON for assertions.
type LogSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// NewLogger returns a debug-level JSON logger writing into a fresh sink.
func NewLogger(t *testing.T) (*slog.Logger, *LogSink) {
	t.Helper()
	sink := &LogSink{}
	logger := slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, sink
}

// Records decodes every captured line.
func (s *LogSink) Records(t *testing.T) []LogRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LogRecord
	sc := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	for sc.Scan() {
		var r LogRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode log line %q: %v", sc.Text(), err)
		}
		out = append(out, r)
	}
	return out
}

// WithMessage returns the captured records whose message is msg.
func (s *LogSink) WithMessage(t *testing.T, msg string) []LogRecord {
	t.Helper()
	var out []LogRecord
	for _, r := range s.Records(t) {
		if r.Msg() == msg {
			out = append(out, r)
		}
	}
	return out
}
