package queue

import "sync"

// ChatDispatcher serializa o processamento por chat: eventos do mesmo
// chat rodam um por vez, na ordem de chegada; chats diferentes rodam em
// paralelo. A goroutine de um chat só existe enquanto há trabalho.
type ChatDispatcher struct {
	mu      sync.Mutex
	streams map[int64]*chatStream
	wg      sync.WaitGroup
}

type chatStream struct {
	jobs    []func()
	running bool
}

func NewChatDispatcher() *ChatDispatcher {
	return &ChatDispatcher{
		streams: make(map[int64]*chatStream),
	}
}

// Dispatch enfileira o job no stream do chat e garante que existe
// exatamente um consumidor drenando esse stream.
func (d *ChatDispatcher) Dispatch(chatID int64, job func()) {
	d.mu.Lock()
	st, ok := d.streams[chatID]
	if !ok {
		st = &chatStream{}
		d.streams[chatID] = st
	}
	st.jobs = append(st.jobs, job)
	if !st.running {
		st.running = true
		d.wg.Add(1)
		go d.drainStream(chatID, st)
	}
	d.mu.Unlock()
}

func (d *ChatDispatcher) drainStream(chatID int64, st *chatStream) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(st.jobs) == 0 {
			st.running = false
			delete(d.streams, chatID)
			d.mu.Unlock()
			return
		}
		job := st.jobs[0]
		st.jobs = st.jobs[1:]
		d.mu.Unlock()

		job()
	}
}

// Drain espera todos os jobs em voo terminarem (janela de shutdown).
func (d *ChatDispatcher) Drain() {
	d.wg.Wait()
}
