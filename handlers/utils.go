package handlers

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/justbri/marquee/models"
	"github.com/justbri/marquee/services"
	"github.com/justbri/marquee/web"
)

const placeholderPoster = "/static/placeholder.svg"

var (
	pageTmpl    *template.Template
	partialTmpl *template.Template
)

func init() {
	var err error
	funcMap := GetFuncMap()
	pageTmpl, err = template.New("page").Funcs(funcMap).ParseFS(web.Templates(),
		"layouts/base.html",
		"pages/index.html",
		"components/header.html",
		"components/view.html",
	)
	if err != nil {
		log.Fatal("Failed to parse page template:", err)
	}

	partialTmpl, err = template.New("partials").Funcs(funcMap).ParseFS(web.Templates(),
		"components/header.html",
		"components/view.html",
	)
	if err != nil {
		log.Fatal("Failed to parse partial templates:", err)
	}
}

func GetFuncMap() template.FuncMap {
	return template.FuncMap{
		"posterURL": func(m models.Movie) string {
			if m.HasPoster() {
				return m.Poster
			}
			return placeholderPoster
		},
		"detailPosterURL": func(d models.MovieDetail) string {
			if d.HasPoster() {
				return d.Poster
			}
			return placeholderPoster
		},
		"title": func(s string) string {
			if len(s) == 0 {
				return s
			}
			return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
		},
	}
}

// PageData is everything the header and main panel render from.
type PageData struct {
	View           string
	Page           int
	SearchTerm     string
	Query          string
	Genre          string
	Genres         []string
	Movies         []models.Movie
	Popup          bool
	Loading        bool
	Detail         *models.MovieDetail
	FailedID       string
	FavoritesCount int
	ShowPager      bool
	ShowPrev       bool
}

func newPageData(snap services.Snapshot) PageData {
	data := PageData{
		View:           snap.View.Kind(),
		Page:           snap.Page,
		Query:          snap.State.Query,
		Genre:          snap.State.Genre,
		Genres:         services.Genres,
		Movies:         snap.State.Movies,
		Popup:          snap.State.Popup,
		Loading:        snap.State.Loading,
		FavoritesCount: len(snap.State.Favorites),
	}

	switch v := snap.View.(type) {
	case services.Browsing:
		data.ShowPager = true
		data.ShowPrev = v.Page > 1
	case services.Searching:
		data.SearchTerm = v.Term
	case services.DetailShown:
		detail := v.Detail
		data.Detail = &detail
	case services.DetailFailed:
		data.FailedID = v.ID
	}
	return data
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func render(w http.ResponseWriter, tmpl *template.Template, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
