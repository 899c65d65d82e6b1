package session

import (
	"context"
	"sync"
	"time"
)

// Store - доступ к состоянию диалога по chatID: get-or-create, set, clear.
// Store gives per-chat access to the flow state: get-or-create, set, clear.
type Store interface {
	Get(ctx context.Context, chatID int64) (ChatSession, error)
	Set(ctx context.Context, s ChatSession) error
	Clear(ctx context.Context, chatID int64) error
}

// MemoryStore хранит сессии в памяти процесса. После рестарта сессии теряются.
// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	sessions map[int64]ChatSession // Ключ: chatID / Key: chatID
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryStore создает и возвращает новый экземпляр MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]ChatSession),
		now:      time.Now,
	}
}

// Get возвращает сессию чата. Если ее нет, создает новую в состоянии Idle.
// Get returns the chat's session, creating an Idle one when absent.
func (m *MemoryStore) Get(_ context.Context, chatID int64) (ChatSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[chatID]; ok {
		return s, nil
	}
	s = NewChatSession(chatID)
	s.UpdatedAt = m.now()
	m.sessions[chatID] = s
	return s, nil
}

// Set сохраняет сессию целиком.
func (m *MemoryStore) Set(_ context.Context, s ChatSession) error {
	if s.Step == nil {
		s.Step = Idle{}
	}
	s.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[s.ChatID] = s
	m.mu.Unlock()
	return nil
}

// Clear удаляет сессию; следующий Get вернет Idle.
func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	return nil
}

// Len - число сессий в памяти.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
