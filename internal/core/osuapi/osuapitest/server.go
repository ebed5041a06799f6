// Package osuapitest provides an in-process fake of the osu! most-played
// listing for tests.
package osuapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/osudump/osudump/internal/core"
)

// Request is one request the fake server received.
type Request struct {
	UserID string
	Limit  int
	Offset int
}

// Server serves preconfigured pages per user. Unknown users get the 404 body
// the real API sends, which does not decode as a page.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	pages    map[string][][]core.BeatmapPlaycount
	requests []Request
	failures int
	broken   map[int]bool
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		pages:  make(map[string][][]core.BeatmapPlaycount),
		broken: make(map[int]bool),
	}

	r := chi.NewRouter()
	r.Get("/users/{userID}/beatmapsets/most_played", s.mostPlayed)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetPages replaces the listing served for a user. Offsets past the last page
// return an empty page.
func (s *Server) SetPages(userID string, pages ...[]core.BeatmapPlaycount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[userID] = pages
}

// FailNext makes the next n requests answer with a truncated body.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// FailOffset makes every request for the given page offset answer with a
// truncated body.
func (s *Server) FailOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[offset] = true
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) mostPlayed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	s.mu.Lock()
	s.requests = append(s.requests, Request{UserID: userID, Limit: limit, Offset: offset})
	failing := s.broken[offset]
	if !failing && s.failures > 0 {
		failing = true
		s.failures--
	}
	pages, known := s.pages[userID]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		_, _ = w.Write([]byte(`[{"beatmap_id":`))
		return
	}
	if !known {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":null}`))
		return
	}

	page := []core.BeatmapPlaycount{}
	if offset >= 0 && offset < len(pages) {
		page = pages[offset]
	}
	_ = json.NewEncoder(w).Encode(page)
}

// Record builds a single most-played item.
func Record(setID int, stars float64, mode string, count int) core.BeatmapPlaycount {
	return core.BeatmapPlaycount{
		BeatmapID: setID*1000 + int(stars*100),
		Count:     count,
		Beatmap: core.Beatmap{
			ID:               setID*1000 + int(stars*100),
			DifficultyRating: stars,
			Mode:             mode,
			Status:           "ranked",
		},
		Beatmapset: core.Beatmapset{
			ID:      setID,
			Artist:  fmt.Sprintf("Artist %d", setID),
			Creator: fmt.Sprintf("Mapper %d", setID),
			Title:   fmt.Sprintf("Song %d", setID),
		},
	}
}

// Page builds n osu!standard items, perSet consecutive items per set, with set
// ids starting at firstSet.
func Page(n, firstSet, perSet int) []core.BeatmapPlaycount {
	if perSet <= 0 {
		perSet = 1
	}
	page := make([]core.BeatmapPlaycount, 0, n)
	for i := 0; i < n; i++ {
		setID := firstSet + i/perSet
		stars := 1 + float64(i%perSet)
		page = append(page, Record(setID, stars, "osu", n-i))
	}
	return page
}
