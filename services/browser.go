package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/justbri/marquee/config"
	"github.com/justbri/marquee/models"
	"github.com/justbri/marquee/shared/logger"
)

var (
	// ErrInvalidTransition is returned for actions the current view does
	// not offer, e.g. "previous" on page 1.
	ErrInvalidTransition = errors.New("action not available in the current view")
	// ErrUnknownMovie is returned when an id is not on screen.
	ErrUnknownMovie = errors.New("movie is not part of the current view")
	// ErrClosed is returned once the browser has been torn down.
	ErrClosed = errors.New("browser closed")
)

// Genres offered by the genre filter. The value is sent as the free-text
// search term.
var Genres = []string{"action", "comedy", "drama", "horror", "romance", "thriller"}

const (
	slotResults = iota
	slotDetail
	slotCount
)

type BrowserConfig struct {
	Debounce   time.Duration
	BrowseTerm string
	BrowseYear string
}

// BrowserConfigFrom picks the browser settings out of the app config.
func BrowserConfigFrom(cfg *config.Config) BrowserConfig {
	return BrowserConfig{
		Debounce:   cfg.SearchDebounce,
		BrowseTerm: cfg.BrowseTerm,
		BrowseYear: cfg.BrowseYear,
	}
}

// Snapshot is a consistent copy of a browser for rendering.
type Snapshot struct {
	View  View
	Page  int
	State StoreState
}

type fetchSlot struct {
	seq    uint64
	cancel context.CancelFunc
}

// Browser drives one visitor's screen: search input, default listing,
// detail panel and favorites. Every fetch belongs to a slot; a new fetch
// cancels the previous one in its slot and only the latest completion of a
// slot is applied.
type Browser struct {
	owner     string
	source    MovieSource
	store     *Store
	favorites FavoritesRepository
	debouncer *Debouncer
	cfg       BrowserConfig
	log       *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu       sync.Mutex
	view     View
	origin   View
	page     int
	slots    [slotCount]fetchSlot
	inflight int
	closed   bool
}

func NewBrowser(owner string, source MovieSource, store *Store, favorites FavoritesRepository, cfg BrowserConfig) *Browser {
	if cfg.Debounce <= 0 {
		cfg.Debounce = config.DefaultSearchDebounce
	}
	if cfg.BrowseTerm == "" {
		cfg.BrowseTerm = config.DefaultBrowseTerm
	}
	if favorites == nil {
		favorites = NewMemoryFavorites()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Browser{
		owner:      owner,
		source:     source,
		store:      store,
		favorites:  favorites,
		debouncer:  NewDebouncer(cfg.Debounce),
		cfg:        cfg,
		log:        logger.With("visitor", owner),
		baseCtx:    ctx,
		baseCancel: cancel,
		view:       Browsing{Page: 1},
		page:       1,
	}
}

// Store exposes the browser's state container.
func (b *Browser) Store() *Store {
	return b.store
}

// Start is the mount step: show page one of the default listing.
func (b *Browser) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.loadPageLocked(1)
}

// EffectiveTerm is the genre when it has at least two characters, otherwise
// the trimmed query.
func EffectiveTerm(genre, query string) string {
	if len(genre) >= 2 {
		return genre
	}
	return strings.TrimSpace(query)
}

// SetQuery replaces the search text and clears the genre.
func (b *Browser) SetQuery(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.store.SetQuery(text)
	b.store.SetGenre("")
	b.scheduleSearchLocked()
	return nil
}

// SetGenre replaces the genre filter and clears the search text.
func (b *Browser) SetGenre(value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.store.SetGenre(value)
	b.store.SetQuery("")
	b.scheduleSearchLocked()
	return nil
}

func (b *Browser) scheduleSearchLocked() {
	term := EffectiveTerm(b.store.Genre(), b.store.Query())
	if term == "" {
		b.debouncer.Cancel()
		b.invalidateLocked(slotResults)
		b.store.SetMovies(nil)
		b.store.SetPopup(false)
		// The listing keeps its page and pager; Back or paging refetches it.
		if _, ok := b.view.(Searching); ok {
			b.setViewLocked(Searching{})
		}
		return
	}

	b.debouncer.Schedule(func(ctx context.Context) {
		b.runSearch(ctx, term)
	})
}

// runSearch is called by the debouncer once input has settled.
func (b *Browser) runSearch(parent context.Context, term string) {
	b.mu.Lock()
	// Superseded between the timer firing and taking the lock.
	if b.closed || parent.Err() != nil {
		b.mu.Unlock()
		return
	}
	ctx, seq := b.beginLocked(parent, slotResults)
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	b.log.Debug("Searching movies", "term", term)
	apply := b.guard(func() func() {
		movies, err := b.source.Search(ctx, SearchParams{Term: term})
		return func() {
			b.leaveDetailLocked()
			if err != nil {
				b.logFetchError("Movie search failed", err, "term", term)
				b.store.SetMovies(nil)
				b.store.SetPopup(false)
				b.setViewLocked(Searching{Term: term})
				return
			}
			b.store.SetMovies(movies)
			b.store.SetPopup(b.store.Query() != "")
			b.setViewLocked(Searching{Term: term})
		}
	})
	b.complete(ctx, slotResults, seq, apply)
}

// PickSuggestion selects a movie from the autocomplete popup. The title is
// copied into the search box without starting another search.
func (b *Browser) PickSuggestion(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	movie, ok := models.FindMovie(b.store.Movies(), id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMovie, id)
	}
	b.debouncer.Cancel()
	b.store.SetQuery(movie.Title)
	b.store.SetPopup(false)
	b.selectLocked(movie)
	return nil
}

// Select opens the detail panel for a grid entry.
func (b *Browser) Select(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	movie, ok := models.FindMovie(b.store.Movies(), id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMovie, id)
	}
	b.selectLocked(movie)
	return nil
}

func (b *Browser) selectLocked(movie models.Movie) {
	b.debouncer.Cancel()
	b.invalidateLocked(slotResults)

	// The grid goes away before the lookup is issued.
	b.store.SetMovies(nil)
	b.store.SetPopup(false)
	b.store.SetSelectedMovie(&movie)

	if !IsDetail(b.view) {
		b.origin = b.view
	}
	b.setViewLocked(DetailLoading{ID: movie.IMDbID})

	id := movie.IMDbID
	b.launchLocked(slotDetail, func(ctx context.Context) func() {
		detail, err := b.source.Lookup(ctx, id)
		return func() {
			if err != nil {
				b.logFetchError("Movie lookup failed", err, "imdb_id", id)
				b.setViewLocked(DetailFailed{ID: id})
				return
			}
			b.setViewLocked(DetailShown{Detail: *detail})
		}
	})
}

// Back leaves the detail panel for the view it was opened from, fetched
// again. From search results or favorites it returns to the listing page.
func (b *Browser) Back() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	if !IsDetail(b.view) {
		b.clearSearchLocked()
		b.loadPageLocked(b.page)
		return nil
	}

	origin := b.origin
	b.leaveDetailLocked()
	switch v := origin.(type) {
	case Searching:
		if v.Term != "" {
			// A picked suggestion replaced the search text; put back what
			// the results are for.
			if b.store.Genre() == "" {
				b.store.SetQuery(v.Term)
			}
			b.searchNowLocked(v.Term)
			return nil
		}
	case FavoritesList:
		b.showFavoritesLocked()
		return nil
	}
	b.loadPageLocked(b.page)
	return nil
}

// Home resets search input and selection and shows page one.
func (b *Browser) Home() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.clearSearchLocked()
	b.loadPageLocked(1)
	return nil
}

// NextPage is always available while browsing; there is no upper bound.
func (b *Browser) NextPage() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.view.(Browsing); !ok {
		return ErrInvalidTransition
	}
	b.loadPageLocked(b.page + 1)
	return nil
}

// PrevPage is only available past page one.
func (b *Browser) PrevPage() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.view.(Browsing); !ok || b.page <= 1 {
		return ErrInvalidTransition
	}
	b.loadPageLocked(b.page - 1)
	return nil
}

// ShowFavorites puts the favorites into the grid.
func (b *Browser) ShowFavorites() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.showFavoritesLocked()
	return nil
}

func (b *Browser) showFavoritesLocked() {
	b.debouncer.Cancel()
	b.leaveDetailLocked()
	b.invalidateLocked(slotResults)
	b.store.SetPopup(false)
	b.store.SetMovies(b.store.Favorites())
	b.setViewLocked(FavoritesList{})
}

// AddFavorite appends the movie with id to the favorites unless it is
// already there. The movie must be on screen: in the grid, selected or in
// the detail panel. It reports whether the favorites changed.
func (b *Browser) AddFavorite(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false, ErrClosed
	}
	movie, ok := b.onScreenLocked(id)
	if !ok {
		b.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownMovie, id)
	}
	favorites := b.store.Favorites()
	if models.ContainsMovie(favorites, id) {
		b.mu.Unlock()
		return false, nil
	}
	b.store.SetFavorites(append(favorites, movie))
	b.mu.Unlock()

	if err := b.favorites.Add(ctx, b.owner, movie); err != nil {
		b.log.Warn("Failed to persist favorite", "imdb_id", id, "error", err)
		return true, err
	}
	return true, nil
}

func (b *Browser) onScreenLocked(id string) (models.Movie, bool) {
	if m, ok := models.FindMovie(b.store.Movies(), id); ok {
		return m, true
	}
	if sel := b.store.SelectedMovie(); sel != nil && sel.IMDbID == id {
		return *sel, true
	}
	if v, ok := b.view.(DetailShown); ok && v.Detail.IMDbID == id {
		return v.Detail.Movie(), true
	}
	return models.Movie{}, false
}

// Snapshot returns the current view with a copy of the store.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		View:  b.view,
		Page:  b.page,
		State: b.store.Snapshot(),
	}
}

// Subscribe forwards to the store; view changes are signalled too.
func (b *Browser) Subscribe() (<-chan struct{}, func()) {
	return b.store.Subscribe()
}

// Close cancels pending and in-flight work, waits for it and closes the
// store.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.debouncer.Stop()
	for i := range b.slots {
		if b.slots[i].cancel != nil {
			b.slots[i].cancel()
			b.slots[i].cancel = nil
		}
	}
	b.baseCancel()
	b.mu.Unlock()

	b.wg.Wait()
	b.store.Close()
}

func (b *Browser) clearSearchLocked() {
	b.debouncer.Cancel()
	b.store.SetQuery("")
	b.store.SetGenre("")
	b.store.SetPopup(false)
}

func (b *Browser) loadPageLocked(page int) {
	b.debouncer.Cancel()
	b.leaveDetailLocked()
	b.page = page
	b.setViewLocked(Browsing{Page: page})

	params := SearchParams{Term: b.cfg.BrowseTerm, Year: b.cfg.BrowseYear, Page: page}
	b.launchLocked(slotResults, func(ctx context.Context) func() {
		movies, err := b.source.Search(ctx, params)
		return func() {
			if err != nil {
				b.logFetchError("Default listing failed", err, "page", page)
				b.store.SetMovies(nil)
				return
			}
			b.store.SetMovies(movies)
		}
	})
}

// searchNowLocked re-runs a search without waiting for the debounce.
func (b *Browser) searchNowLocked(term string) {
	b.debouncer.Cancel()
	b.leaveDetailLocked()
	b.setViewLocked(Searching{Term: term})
	b.launchLocked(slotResults, func(ctx context.Context) func() {
		movies, err := b.source.Search(ctx, SearchParams{Term: term})
		return func() {
			if err != nil {
				b.logFetchError("Movie search failed", err, "term", term)
				b.store.SetMovies(nil)
				return
			}
			b.store.SetMovies(movies)
		}
	})
}

// leaveDetailLocked drops the selection and makes an outstanding lookup
// stale, so it cannot reopen the detail panel over a grid.
func (b *Browser) leaveDetailLocked() {
	b.invalidateLocked(slotDetail)
	b.store.SetSelectedMovie(nil)
	b.origin = nil
}

func (b *Browser) setViewLocked(v View) {
	b.view = v
	b.store.Notify()
}

// beginLocked opens a new fetch in slot, superseding the previous one.
func (b *Browser) beginLocked(parent context.Context, slot int) (context.Context, uint64) {
	s := &b.slots[slot]
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.seq++
	s.cancel = cancel

	b.inflight++
	b.store.SetLoading(true)
	return ctx, s.seq
}

// invalidateLocked makes any outstanding completion in slot stale.
func (b *Browser) invalidateLocked(slot int) {
	s := &b.slots[slot]
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// launchLocked runs work on its own goroutine. work performs the request
// and returns the state change to apply if the fetch is still current.
func (b *Browser) launchLocked(slot int, work func(ctx context.Context) func()) {
	ctx, seq := b.beginLocked(b.baseCtx, slot)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		apply := b.guard(func() func() { return work(ctx) })
		b.complete(ctx, slot, seq, apply)
	}()
}

// guard keeps a panicking fetch from taking the process down.
func (b *Browser) guard(fn func() func()) (apply func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Fetch panicked", "panic", r)
			apply = nil
		}
	}()
	return fn()
}

// complete always releases the loading flag; apply only runs for the
// latest, uncancelled fetch of the slot.
func (b *Browser) complete(ctx context.Context, slot int, seq uint64, apply func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inflight--
	defer func() {
		b.store.SetLoading(b.inflight > 0)
	}()

	s := &b.slots[slot]
	if b.closed || s.seq != seq || ctx.Err() != nil {
		b.log.Debug("Discarding stale response", "slot", slot, "seq", seq, "latest", s.seq)
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if apply != nil {
		apply()
	}
}

func (b *Browser) logFetchError(msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case errors.Is(err, context.Canceled):
		b.log.Debug(msg, args...)
	case IsNegative(err):
		b.log.Info(msg, args...)
	default:
		b.log.Warn(msg, args...)
	}
}
