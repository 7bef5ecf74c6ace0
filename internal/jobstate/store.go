package jobstate

import "sync"

// Update is delivered to subscribers after each dispatch.
type Update struct {
	Seq    int64
	Action string
	State  State
}

// Store serializes dispatches and fans updates out to subscribers.
type Store struct {
	mu      sync.Mutex
	state   State
	seq     int64
	nextSub int
	subs    map[int]chan Update
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, subs: make(map[int]chan Update)}
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	s.seq++
	u := Update{Seq: s.seq, Action: Name(a), State: s.state}
	for _, ch := range s.subs {
		// Slow subscribers miss intermediate updates; the next one carries the full state.
		select {
		case ch <- u:
		default:
		}
	}
	return s.state
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a buffered channel of updates. The returned func
// unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Update, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}
