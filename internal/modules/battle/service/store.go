package service

import (
	"context"
	"sync"
	"time"

	"career-royale/internal/pkg/xerrors"

	"github.com/google/uuid"
)

// Store 战斗状态存储
type Store interface {
	// Create 创建满血的新战斗
	Create(resume, jd string, mode Mode) *Battle
	// Get 查询战斗，已被回收的战斗视为不存在
	Get(id string) (*Battle, bool)
	// Acquire 获取战斗的执行租约，同一战斗同时只允许一个执行者
	// cancel 会在战斗被回收时调用，用于中止执行
	Acquire(id string, cancel context.CancelFunc) (*Battle, error)
	// Release 归还执行租约
	Release(id string)
	// Reap 回收创建时间超过 maxAge 的战斗，返回回收数量
	Reap(maxAge time.Duration) int
	// Len 当前存储的战斗数
	Len() int
}

type storeEntry struct {
	battle *Battle

	// running 表示有执行者持有租约
	running bool
	cancel  context.CancelFunc

	// reaped 表示已过期但执行者尚未归还租约，归还时删除
	reaped bool
}

// MemoryStore 基于 map 的并发安全内存存储
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*storeEntry
	now     func() time.Time
	newID   func() string
}

// StoreOption MemoryStore 选项
type StoreOption func(*MemoryStore)

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator 注入 ID 生成器（测试用）
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *MemoryStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*storeEntry),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create 实现 Store
func (s *MemoryStore) Create(resume, jd string, mode Mode) *Battle {
	battle := NewBattle(s.newID(), resume, jd, mode, s.now())

	s.mu.Lock()
	s.entries[battle.ID] = &storeEntry{battle: battle}
	s.mu.Unlock()

	return battle
}

// Get 实现 Store
func (s *MemoryStore) Get(id string) (*Battle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.reaped {
		return nil, false
	}
	return e.battle, true
}

// Acquire 实现 Store
func (s *MemoryStore) Acquire(id string, cancel context.CancelFunc) (*Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.reaped {
		return nil, xerrors.NewBattleNotFoundError(id)
	}
	if e.running {
		return nil, xerrors.NewBattleInProgressError(id)
	}
	if !e.battle.IsActive() {
		return nil, xerrors.NewBattleFinishedError(id)
	}

	e.running = true
	e.cancel = cancel
	return e.battle, nil
}

// Release 实现 Store
func (s *MemoryStore) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.running = false
	e.cancel = nil
	if e.reaped {
		delete(s.entries, id)
	}
}

// Reap 实现 Store
// 正在执行的战斗先标记并取消，等执行者 Release 时再删除
func (s *MemoryStore) Reap(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, e := range s.entries {
		if e.reaped || !e.battle.CreatedAt.Before(cutoff) {
			continue
		}
		reaped++
		if !e.running {
			delete(s.entries, id)
			continue
		}
		e.reaped = true
		if e.cancel != nil {
			e.cancel()
		}
	}
	return reaped
}

// Len 实现 Store，已标记回收的战斗不计入
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !e.reaped {
			n++
		}
	}
	return n
}
