package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	entries []AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.entries = append(p.entries, payload.([]AggregatedLogEntry)...)
	return nil
}

func (p *capturePublisher) snapshot() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AggregatedLogEntry(nil), p.entries...)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("report sent", String("channel", "general"), Int("quotes", 8))
	l.Debug("filtered out")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"report sent"`)
	assert.Contains(t, string(b), `"channel":"general"`)
	assert.NotContains(t, string(b), "filtered out")
}

func TestCollector_AggregatesRepeatedErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("broadcast failed", String("channel", "general"))
	}
	l.Warn("not collected")
	l.RemoveCollector()

	entries := pub.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
	assert.Equal(t, "broadcast failed", entries[0].Message)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, "general", entries[0].Fields["channel"])
	assert.Equal(t, []string{"logs"}, pub.topics)
}

func TestCollector_FlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer l.RemoveCollector()

	l.Error("first", Error(errors.New("a")))
	l.Error("second", Error(errors.New("b")))

	assert.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
}
