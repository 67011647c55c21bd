package services

import (
	"sync"

	"github.com/google/uuid"
)

type pairKey struct {
	userID  uuid.UUID
	mediaID uuid.UUID
}

type pairEntry struct {
	mu   sync.Mutex
	refs int
}

// PairLocker 为每个 (user, media) 提供独立的互斥区，不同键之间互不阻塞。
// 空闲的键在最后一个持有者释放后回收。
type PairLocker struct {
	mu      sync.Mutex
	entries map[pairKey]*pairEntry
}

// NewPairLocker 构造锁表。
func NewPairLocker() *PairLocker {
	return &PairLocker{entries: make(map[pairKey]*pairEntry)}
}

// Lock 获取 (userID, mediaID) 的互斥锁，返回释放函数。
func (l *PairLocker) Lock(userID, mediaID uuid.UUID) func() {
	key := pairKey{userID: userID, mediaID: mediaID}

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &pairEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len 返回当前被持有或等待中的键数量。
func (l *PairLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
