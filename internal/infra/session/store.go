// Package session guarda o estado conversacional por sessão, em memória
// com TTL. O Lock garante um único escritor por sessão: turnos
// concorrentes da mesma sessão serializam em vez de intercalar leituras
// e escritas de estado.
package session

import (
	"sync"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/cache"
)

// Store implementa port.SessionStore. Os estados são guardados por valor:
// Load devolve uma cópia, então mutações de um turno que falhou não vazam
// para a sessão persistida.
type Store struct {
	states *cache.InMemory[domain.ConversationState]

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock é o lock de uma sessão com contagem de usuários (detentor +
// goroutines esperando). A entrada sai do mapa quando a contagem zera,
// então o mapa não cresce com sessões já encerradas ou expiradas.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New cria o store de sessões com o TTL dado.
func New(ttl time.Duration) *Store {
	return &Store{
		states: cache.New[domain.ConversationState](ttl),
		locks:  make(map[string]*sessionLock),
	}
}

// Load devolve uma cópia do estado da sessão, ou false se não existe
// (primeira visita ou TTL expirado).
func (s *Store) Load(sessionID string) (*domain.ConversationState, bool) {
	state, ok := s.states.Get(sessionID)
	if !ok {
		return nil, false
	}
	// Cópia profunda do histórico: o slice no cache não pode ser
	// compartilhado com o chamador.
	state.ConversationHistory = append([]string(nil), state.ConversationHistory...)
	return &state, true
}

// Save persiste o estado da sessão, renovando o TTL.
func (s *Store) Save(sessionID string, state *domain.ConversationState) {
	if state == nil {
		return
	}
	copied := *state
	copied.ConversationHistory = append([]string(nil), state.ConversationHistory...)
	s.states.Set(sessionID, copied)
}

// Clear descarta o estado da sessão (despedida/reset).
func (s *Store) Clear(sessionID string) {
	s.states.Delete(sessionID)
}

// Lock adquire o lock da sessão e devolve a função de liberação.
func (s *Store) Lock(sessionID string) (release func()) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
