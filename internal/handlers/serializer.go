package handlers

import "sync"

// ChatSerializer выполняет задачи одного чата строго по очереди, а разных чатов - параллельно.
// Для активного чата работает одна горутина, она завершается, когда очередь пуста.
// ChatSerializer runs jobs of one chat strictly in order and jobs of different chats in parallel.
// An active chat owns one goroutine that exits once its queue is empty.
type ChatSerializer struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func NewChatSerializer() *ChatSerializer {
	return &ChatSerializer{queues: make(map[int64][]func())}
}

// Submit ставит задачу в очередь чата.
func (s *ChatSerializer) Submit(chatID int64, job func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, active := s.queues[chatID]
	s.queues[chatID] = append(queue, job)
	if !active {
		s.wg.Add(1)
		go s.drain(chatID)
	}
}

func (s *ChatSerializer) drain(chatID int64) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		queue := s.queues[chatID]
		if len(queue) == 0 {
			delete(s.queues, chatID)
			s.mu.Unlock()
			return
		}
		job := queue[0]
		s.queues[chatID] = queue[1:]
		s.mu.Unlock()

		job()
	}
}

// Wait блокируется, пока не опустеют все очереди.
func (s *ChatSerializer) Wait() {
	s.wg.Wait()
}

// Active - число чатов с незавершенными задачами.
func (s *ChatSerializer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}
