package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"med_reminder_bot/internal/domain/subscriber"
)

// subscribersFile is the on-disk shape: a flat list under a single key.
type subscribersFile struct {
	Subscribers []int64 `json:"subscribers"`
}

// SubscriberStore is a file-backed implementation of subscriber.Repository.
// The full set is loaded into memory at startup; reads are served from the
// memory copy, writes update memory and then rewrite the file atomically.
type SubscriberStore struct {
	filePath    string
	mu          sync.Mutex
	subscribers map[int64]struct{}
}

var _ subscriber.Repository = (*SubscriberStore)(nil)

// NewSubscriberStore loads the subscriber set from disk, starting empty when
// the file is missing or unreadable.
func NewSubscriberStore(filePath string) (*SubscriberStore, error) {
	if err := ensureParentDir(filePath); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s := &SubscriberStore{
		filePath:    filePath,
		subscribers: map[int64]struct{}{},
	}
	raw, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscribers file: %w", err)
	}
	var file subscribersFile
	if err := json.Unmarshal(raw, &file); err != nil {
		// A corrupt file should not keep the bot from starting; begin with
		// an empty set, the next write replaces the file.
		return s, nil
	}
	for _, id := range file.Subscribers {
		s.subscribers[id] = struct{}{}
	}
	return s, nil
}

func (s *SubscriberStore) save() error {
	file := subscribersFile{Subscribers: make([]int64, 0, len(s.subscribers))}
	for id := range s.subscribers {
		file.Subscribers = append(file.Subscribers, id)
	}
	sort.Slice(file.Subscribers, func(i, j int) bool { return file.Subscribers[i] < file.Subscribers[j] })
	return writeJSONAtomic(s.filePath, file)
}

// Add subscribes a chat. Adding an existing subscriber is a no-op.
func (s *SubscriberStore) Add(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[chatID]; ok {
		return nil
	}
	s.subscribers[chatID] = struct{}{}
	return s.save()
}

// Remove unsubscribes a chat. Removing an unknown subscriber is a no-op.
func (s *SubscriberStore) Remove(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[chatID]; !ok {
		return nil
	}
	delete(s.subscribers, chatID)
	return s.save()
}

// Contains reports whether the chat is subscribed.
func (s *SubscriberStore) Contains(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subscribers[chatID]
	return ok, nil
}

// ListAll returns all subscribed chat ids in ascending order.
func (s *SubscriberStore) ListAll(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
