package worker

import (
	"context"
	"log"
	"time"
)

// SessionEvictor é implementado pelo engine de conversa.
type SessionEvictor interface {
	EvictIdle(olderThan time.Duration) int
}

// SessionEvictionWorker limpa sessões paradas no meio do cadastro para
// a tabela de sessões não crescer sem limite.
type SessionEvictionWorker struct {
	engine       SessionEvictor
	idleWindow   time.Duration
	tickInterval time.Duration
}

func NewSessionEvictionWorker(engine SessionEvictor, idleWindow time.Duration) *SessionEvictionWorker {
	if idleWindow <= 0 {
		idleWindow = 30 * time.Minute
	}
	return &SessionEvictionWorker{
		engine:       engine,
		idleWindow:   idleWindow,
		tickInterval: 1 * time.Minute,
	}
}

func (w *SessionEvictionWorker) Start(ctx context.Context) {
	log.Printf("🕒 Session Eviction Worker iniciado (janela de %s)", w.idleWindow)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Session Eviction Worker encerrado")
			return
		case <-ticker.C:
			w.engine.EvictIdle(w.idleWindow)
		}
	}
}
