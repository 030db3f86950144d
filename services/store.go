package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/justbri/marquee/models"
)

// ErrNoStore is raised when a store is read from a context that was never
// given one.
var ErrNoStore = errors.New("movie store used outside of an initialized scope")

// StoreState is a point-in-time copy of everything the store holds.
type StoreState struct {
	Query     string         `json:"query"`
	Genre     string         `json:"genre"`
	Movies    []models.Movie `json:"movies"`
	Favorites []models.Movie `json:"favorites"`
	Selected  *models.Movie  `json:"selected,omitempty"`
	Loading   bool           `json:"loading"`
	Popup     bool           `json:"popup"`
	Version   uint64         `json:"version"`
}

// SearchWriter is the slice of the store owned by search input handling.
type SearchWriter interface {
	SetQuery(text string)
	SetGenre(value string)
	SetPopup(visible bool)
}

// ListWriter is the slice of the store owned by the list/detail panel.
type ListWriter interface {
	SetMovies(movies []models.Movie)
	SetFavorites(favorites []models.Movie)
	SetSelectedMovie(movie *models.Movie)
}

// Store is the single source of truth for one visitor. It is a plain
// container: mutators replace values wholesale and notify subscribers.
type Store struct {
	mu     sync.RWMutex
	state  StoreState
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

var (
	_ SearchWriter = (*Store)(nil)
	_ ListWriter   = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		state: StoreState{
			Movies:    []models.Movie{},
			Favorites: []models.Movie{},
		},
		subs: make(map[int]chan struct{}),
	}
}

func (s *Store) SetQuery(text string) {
	s.update(func(st *StoreState) { st.Query = text })
}

func (s *Store) SetGenre(value string) {
	s.update(func(st *StoreState) { st.Genre = value })
}

func (s *Store) SetMovies(movies []models.Movie) {
	cp := cloneMovies(movies)
	s.update(func(st *StoreState) { st.Movies = cp })
}

func (s *Store) SetFavorites(favorites []models.Movie) {
	cp := cloneMovies(favorites)
	s.update(func(st *StoreState) { st.Favorites = cp })
}

func (s *Store) SetSelectedMovie(movie *models.Movie) {
	var cp *models.Movie
	if movie != nil {
		m := *movie
		cp = &m
	}
	s.update(func(st *StoreState) { st.Selected = cp })
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(st *StoreState) { st.Loading = loading })
}

func (s *Store) SetPopup(visible bool) {
	s.update(func(st *StoreState) { st.Popup = visible })
}

// Notify bumps the version and wakes subscribers without changing any field;
// owners of state kept outside the store use it to request a re-render.
func (s *Store) Notify() {
	s.update(func(*StoreState) {})
}

func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Query
}

func (s *Store) Genre() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Genre
}

func (s *Store) Movies() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMovies(s.state.Movies)
}

func (s *Store) Favorites() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMovies(s.state.Favorites)
}

func (s *Store) SelectedMovie() *models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Selected == nil {
		return nil
	}
	m := *s.state.Selected
	return &m
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

func (s *Store) Popup() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Popup
}

func (s *Store) Snapshot() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Movies = cloneMovies(s.state.Movies)
	st.Favorites = cloneMovies(s.state.Favorites)
	if s.state.Selected != nil {
		m := *s.state.Selected
		st.Selected = &m
	}
	return st
}

// Subscribe returns a channel signalled after mutations. Signals coalesce:
// a slow reader sees one pending signal, not one per change.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends the store's lifetime; subscriber channels are closed and
// further mutations are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) update(fn func(*StoreState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn(&s.state)
	s.state.Version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func cloneMovies(movies []models.Movie) []models.Movie {
	if movies == nil {
		return []models.Movie{}
	}
	return slices.Clone(movies)
}

type storeKey struct{}

// WithStore attaches s to ctx for code further down the request.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

func StoreFromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(storeKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}

// MustStore panics with ErrNoStore when ctx carries no store.
func MustStore(ctx context.Context) *Store {
	s, err := StoreFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
