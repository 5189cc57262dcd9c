package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/lyrics"
	"github.com/mgpai22/lyricquiz/internal/quiz"
)

type roundResponse struct {
	quiz.Round
	CoverURL string `json:"coverUrl,omitempty"`
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	englishOnly, err := parseBool(r, "englishOnly")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err)
		return
	}

	tracks, err := s.repo.Tracks(r.Context())
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}

	round, err := s.policy.SelectRound(tracks, englishOnly)
	if errors.Is(err, quiz.ErrEmptyCatalog) {
		s.renderError(w, http.StatusConflict, err)
		return
	} else if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}

	cover, err := catalog.CoverRef(r.Context(), s.repo, round.Correct)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}

	s.renderJSON(w, http.StatusOK, roundResponse{Round: round, CoverURL: cover})
}

func (s *Server) getFetchAudio(w http.ResponseWriter, r *http.Request) {
	songCID := r.URL.Query().Get("songCID")
	if songCID == "" {
		s.renderError(w, http.StatusBadRequest, errors.New("songCID is missing"))
		return
	}

	resp, err := s.upstream.AudioDescriptor(r.Context(), songCID)
	if err != nil {
		s.renderError(w, http.StatusBadGateway, err)
		return
	}

	s.renderJSON(w, http.StatusOK, resp)
}

func (s *Server) getFetchAlbumArt(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("albumLink")
	if link == "" {
		s.renderError(w, http.StatusBadRequest, errors.New("albumLink is missing"))
		return
	}

	res, err := s.upstream.Resource(r.Context(), link)
	if err != nil {
		s.renderError(w, http.StatusBadGateway, err)
		return
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(res.Data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// getLyrics answers with an empty list when the track has no lyrics or they
// cannot be fetched; only a missing audio descriptor is an error.
func (s *Server) getLyrics(w http.ResponseWriter, r *http.Request) {
	lines, ok := s.loadLyrics(w, r)
	if !ok {
		return
	}
	s.renderJSON(w, http.StatusOK, lines)
}

func (s *Server) getLyricLine(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("t")
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, fmt.Errorf("invalid t %q", raw))
		return
	}

	lines, ok := s.loadLyrics(w, r)
	if !ok {
		return
	}

	index := lyrics.CurrentLineIndex(lines, t)
	resp := map[string]interface{}{"index": index}
	if line, ok := lines.Line(index); ok {
		resp["line"] = line
	}
	s.renderJSON(w, http.StatusOK, resp)
}

func (s *Server) loadLyrics(w http.ResponseWriter, r *http.Request) (lyrics.Track, bool) {
	songCID := r.URL.Query().Get("songCID")
	if songCID == "" {
		s.renderError(w, http.StatusBadRequest, errors.New("songCID is missing"))
		return nil, false
	}

	resp, err := s.upstream.AudioDescriptor(r.Context(), songCID)
	if err != nil {
		s.renderError(w, http.StatusBadGateway, err)
		return nil, false
	}

	if resp.Data.LyricURL == "" {
		return lyrics.Track{}, true
	}

	res, err := s.upstream.Resource(r.Context(), resp.Data.LyricURL)
	if err != nil {
		s.logger.Warnw("Failed to fetch lyrics",
			"track", songCID,
			"ref", resp.Data.LyricURL,
			"error", err,
		)
		return lyrics.Track{}, true
	}

	return lyrics.Parse(string(res.Data)), true
}

func parseBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return b, nil
}
