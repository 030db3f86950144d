package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batmanSearch = `{"Search":[
	{"Title":"Batman Begins","Year":"2005","imdbID":"tt0372784","Type":"movie","Poster":"https://img/bb.jpg"},
	{"Title":"Batman","Year":"1989","imdbID":"tt0096895","Type":"movie","Poster":"N/A"}
],"totalResults":"2","Response":"True"}`

const batmanBeginsDetail = `{"Title":"Batman Begins","Year":"2005","Rated":"PG-13",
"Genre":"Action, Crime, Drama","Plot":"After witnessing his parents' death...",
"Poster":"https://img/bb.jpg","imdbRating":"8.2","imdbID":"tt0372784","Type":"movie",
"Ratings":[{"Source":"Internet Movie Database","Value":"8.2/10"}],"Response":"True"}`

func newOMDbServer(t *testing.T, handler func(w http.ResponseWriter, q url.Values)) *OMDbClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r.URL.Query())
	}))
	t.Cleanup(srv.Close)
	return NewOMDbClient(srv.URL+"/", "test-key", srv.Client())
}

func TestSearchSendsParamsAndDecodes(t *testing.T) {
	var got url.Values
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		got = q
		w.Write([]byte(batmanSearch))
	})

	movies, err := client.Search(context.Background(), SearchParams{Term: "batman"})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "tt0372784", movies[0].IMDbID)
	assert.Equal(t, "Batman Begins", movies[0].Title)
	assert.False(t, movies[1].HasPoster())

	assert.Equal(t, "test-key", got.Get("apikey"))
	assert.Equal(t, "batman", got.Get("s"))
	assert.Equal(t, "movie", got.Get("type"))
	assert.False(t, got.Has("y"))
	assert.False(t, got.Has("page"))
}

func TestSearchListingParams(t *testing.T) {
	var got url.Values
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		got = q
		w.Write([]byte(batmanSearch))
	})

	_, err := client.Search(context.Background(), SearchParams{Term: "movie", Year: "2025", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, "movie", got.Get("s"))
	assert.Equal(t, "2025", got.Get("y"))
	assert.Equal(t, "3", got.Get("page"))
}

func TestSearchNegativeResponse(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	})

	movies, err := client.Search(context.Background(), SearchParams{Term: "zzzz"})
	require.Error(t, err)
	assert.Nil(t, movies)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Movie not found!", apiErr.Message)
	assert.True(t, IsNegative(err))
}

func TestSearchInvalidKeyIsNegative(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	})

	_, err := client.Search(context.Background(), SearchParams{Term: "batman"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid API key!", apiErr.Message)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestSearchServerErrorIsTransport(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	})

	_, err := client.Search(context.Background(), SearchParams{Term: "batman"})
	require.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsNegative(err))
}

func TestSearchMalformedBodyIsDecode(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		w.Write([]byte(`{"Search": [`))
	})

	_, err := client.Search(context.Background(), SearchParams{Term: "batman"})
	require.ErrorIs(t, err, ErrDecode)
}

func TestSearchUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewOMDbClient(base, "k", nil)
	_, err := client.Search(context.Background(), SearchParams{Term: "batman"})
	require.ErrorIs(t, err, ErrTransport)
}

func TestLookupPassesFieldsThrough(t *testing.T) {
	var got url.Values
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		got = q
		w.Write([]byte(batmanBeginsDetail))
	})

	detail, err := client.Lookup(context.Background(), "tt0372784")
	require.NoError(t, err)
	assert.Equal(t, "tt0372784", got.Get("i"))
	assert.Equal(t, "full", got.Get("plot"))
	assert.Equal(t, "test-key", got.Get("apikey"))

	assert.Equal(t, "Action, Crime, Drama", detail.Genre)
	assert.Equal(t, "8.2", detail.IMDbRating)
	assert.Equal(t, "PG-13", detail.Rated)
	require.Len(t, detail.Ratings, 1)
	assert.Equal(t, "Batman Begins", detail.Movie().Title)
}

func TestLookupNegativeResponse(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, q url.Values) {
		w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	})

	detail, err := client.Lookup(context.Background(), "tt-bogus")
	assert.Nil(t, detail)
	assert.True(t, IsNegative(err))
}
