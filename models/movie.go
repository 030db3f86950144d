package models

// NoPoster is OMDb's sentinel for a missing poster image.
const NoPoster = "N/A"

// Movie is one entry of an OMDb search result. Two movies are the same
// movie when their IMDbID matches.
type Movie struct {
	IMDbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type,omitempty"`
	Poster string `json:"Poster"`
}

func (m Movie) HasPoster() bool {
	return m.Poster != "" && m.Poster != NoPoster
}

// MovieDetail is the flat object returned by an identifier lookup. Fields
// are passed through as the API sends them.
type MovieDetail struct {
	IMDbID     string   `json:"imdbID"`
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	Rated      string   `json:"Rated,omitempty"`
	Released   string   `json:"Released,omitempty"`
	Runtime    string   `json:"Runtime,omitempty"`
	Genre      string   `json:"Genre"`
	Director   string   `json:"Director,omitempty"`
	Writer     string   `json:"Writer,omitempty"`
	Actors     string   `json:"Actors,omitempty"`
	Plot       string   `json:"Plot"`
	Language   string   `json:"Language,omitempty"`
	Country    string   `json:"Country,omitempty"`
	Awards     string   `json:"Awards,omitempty"`
	Poster     string   `json:"Poster"`
	Ratings    []Rating `json:"Ratings,omitempty"`
	Metascore  string   `json:"Metascore,omitempty"`
	IMDbRating string   `json:"imdbRating"`
	IMDbVotes  string   `json:"imdbVotes,omitempty"`
	Type       string   `json:"Type,omitempty"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error,omitempty"`
}

type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Movie narrows the detail back to the list shape, e.g. for favorites.
func (d MovieDetail) Movie() Movie {
	return Movie{
		IMDbID: d.IMDbID,
		Title:  d.Title,
		Year:   d.Year,
		Type:   d.Type,
		Poster: d.Poster,
	}
}

func (d MovieDetail) HasPoster() bool {
	return d.Poster != "" && d.Poster != NoPoster
}

// SearchResponse is the envelope of an OMDb free-text search.
type SearchResponse struct {
	Search       []Movie `json:"Search,omitempty"`
	TotalResults string  `json:"totalResults,omitempty"`
	Response     string  `json:"Response"`
	Error        string  `json:"Error,omitempty"`
}

// OK reports whether the API answered "True".
func (r SearchResponse) OK() bool {
	return r.Response == "True"
}

// ContainsMovie reports whether movies holds an entry with the given id.
func ContainsMovie(movies []Movie, id string) bool {
	for _, m := range movies {
		if m.IMDbID == id {
			return true
		}
	}
	return false
}

// FindMovie returns the entry with the given id.
func FindMovie(movies []Movie, id string) (Movie, bool) {
	for _, m := range movies {
		if m.IMDbID == id {
			return m, true
		}
	}
	return Movie{}, false
}
