package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
)

const (
	// EventRowAppended is the SSE event name for a committed append.
	EventRowAppended       = "row-appended"
	realtimeEventHeartbeat = "heartbeat"
	realtimeSource         = "questgraph"

	allTables = ""
)

// ChangeEvent reports one appended row.
type ChangeEvent struct {
	Table     string
	Timestamp time.Time
}

// ChangeFeed fans append events out to subscribers keyed by table.
type ChangeFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*feedSubscriber
	nextID      int64
	bufferSize  int
}

type feedSubscriber struct {
	id     int64
	stream chan ChangeEvent
}

// NewChangeFeed builds an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subscribers: make(map[string]map[int64]*feedSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers for events on tables, or on every table when none are
// named. The subscription ends when ctx is done or cleanup is called.
func (f *ChangeFeed) Subscribe(ctx context.Context, tables ...string) (<-chan ChangeEvent, func()) {
	keys := tables
	if len(keys) == 0 {
		keys = []string{allTables}
	}
	subscriber := &feedSubscriber{
		id:     f.nextSequence(),
		stream: make(chan ChangeEvent, f.bufferSize),
	}
	f.registerSubscriber(keys, subscriber)
	var once sync.Once
	stop := make(chan struct{})
	cleanup := func() {
		once.Do(func() {
			close(stop)
			f.unregisterSubscriber(keys, subscriber.id)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-stop:
		}
	}()
	return subscriber.stream, cleanup
}

// Publish delivers event without blocking; full subscribers miss it.
func (f *ChangeFeed) Publish(event ChangeEvent) {
	if event.Table == "" {
		return
	}
	f.mu.RLock()
	targets := make([]*feedSubscriber, 0, len(f.subscribers[event.Table])+len(f.subscribers[allTables]))
	seen := make(map[int64]struct{})
	for _, key := range []string{event.Table, allTables} {
		for id, subscriber := range f.subscribers[key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			targets = append(targets, subscriber)
		}
	}
	f.mu.RUnlock()
	for _, subscriber := range targets {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

// Hook adapts the feed to a row writer decorator.
func (f *ChangeFeed) Hook() storage.AppendHook {
	return func(table string, at time.Time) {
		f.Publish(ChangeEvent{Table: table, Timestamp: at})
	}
}

func (f *ChangeFeed) nextSequence() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID
}

func (f *ChangeFeed) registerSubscriber(keys []string, subscriber *feedSubscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		if _, ok := f.subscribers[key]; !ok {
			f.subscribers[key] = make(map[int64]*feedSubscriber)
		}
		f.subscribers[key][subscriber.id] = subscriber
	}
}

func (f *ChangeFeed) unregisterSubscriber(keys []string, subscriberID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		subscribers := f.subscribers[key]
		if subscribers == nil {
			continue
		}
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(f.subscribers, key)
		}
	}
}
