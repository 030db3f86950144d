package services

import "github.com/justbri/marquee/models"

// View is what the main panel shows. Exactly one variant is active.
type View interface {
	Kind() string
	isView()
}

// Browsing is the default listing at a page.
type Browsing struct {
	Page int
}

// Searching shows the results for the effective search term.
type Searching struct {
	Term string
}

// DetailLoading waits for the lookup of ID.
type DetailLoading struct {
	ID string
}

// DetailShown holds the lookup result.
type DetailShown struct {
	Detail models.MovieDetail
}

// DetailFailed is the empty state after a failed lookup.
type DetailFailed struct {
	ID string
}

// FavoritesList shows the visitor's favorites in the grid.
type FavoritesList struct{}

func (Browsing) Kind() string      { return "browsing" }
func (Searching) Kind() string     { return "searching" }
func (DetailLoading) Kind() string { return "detail-loading" }
func (DetailShown) Kind() string   { return "detail-shown" }
func (DetailFailed) Kind() string  { return "detail-failed" }
func (FavoritesList) Kind() string { return "favorites" }

func (Browsing) isView()      {}
func (Searching) isView()     {}
func (DetailLoading) isView() {}
func (DetailShown) isView()   {}
func (DetailFailed) isView()  {}
func (FavoritesList) isView() {}

// IsDetail reports whether v is one of the detail panel states.
func IsDetail(v View) bool {
	switch v.(type) {
	case DetailLoading, DetailShown, DetailFailed:
		return true
	}
	return false
}
