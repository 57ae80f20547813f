package service

import "sync"

// awaitStore remembers a command waiting for its argument in the next message.
type awaitStore struct {
	mu sync.Mutex
	m  map[int64]string // chatID -> command
}

func newAwaitStore() *awaitStore {
	return &awaitStore{m: make(map[int64]string)}
}

func (t *Telegram) setAwait(chatID int64, cmd string) {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	t.await.m[chatID] = cmd
}

func (t *Telegram) popAwait(chatID int64) string {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	cmd := t.await.m[chatID]
	delete(t.await.m, chatID)
	return cmd
}

func (t *Telegram) clearAwait(chatID int64) {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	delete(t.await.m, chatID)
}
