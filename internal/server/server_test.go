package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/lyrics"
	"github.com/mgpai22/lyricquiz/internal/quiz"
)

type fakeUpstream struct {
	descriptors map[string]fetch.AudioDescriptor
	resources   map[string]fetch.Resource
}

func (f *fakeUpstream) AudioDescriptor(ctx context.Context, trackID string) (*fetch.DescriptorResponse, error) {
	d, ok := f.descriptors[trackID]
	if !ok {
		return nil, fmt.Errorf("fetch: %w 404 Not Found", fetch.ErrStatus)
	}
	return &fetch.DescriptorResponse{Data: d}, nil
}

func (f *fakeUpstream) Resource(ctx context.Context, ref string) (*fetch.Resource, error) {
	res, ok := f.resources[ref]
	if !ok {
		return nil, fmt.Errorf("fetch: %w 404 Not Found", fetch.ErrStatus)
	}
	return &res, nil
}

func newTestServer(t *testing.T, tracks []catalog.Track) *httptest.Server {
	t.Helper()

	upstream := &fakeUpstream{
		descriptors: map[string]fetch.AudioDescriptor{
			"1001": {ID: "1001", SourceURL: "https://cdn.example/1001.mp3", LyricURL: "https://cdn.example/1001.lrc"},
			"1002": {ID: "1002", SourceURL: "https://cdn.example/1002.mp3"},
			"1003": {ID: "1003", SourceURL: "https://cdn.example/1003.mp3", LyricURL: "https://cdn.example/gone.lrc"},
		},
		resources: map[string]fetch.Resource{
			"https://cdn.example/1001.lrc": {Data: []byte("[00:00.00]a\n[00:05.00]b\n[00:10.00]c\n"), ContentType: "text/plain"},
			"https://cdn.example/a1.jpg":   {Data: []byte{0xff, 0xd8, 0xff, 0xe0}, ContentType: "image/jpeg"},
			"https://cdn.example/raw":      {Data: []byte("<html></html>")},
		},
	}

	repo := catalog.New(tracks, []catalog.Album{{ID: "A1", CoverImageRef: "https://cdn.example/a1.jpg"}})
	srv := httptest.NewServer(New(repo, quiz.NewPolicy(rand.NewPCG(5, 6)), upstream, nil))
	t.Cleanup(srv.Close)
	return srv
}

func fiveTracks() []catalog.Track {
	return []catalog.Track{
		{ID: "1001", DisplayName: "One", AlbumID: "A1"},
		{ID: "1002", DisplayName: "Two", AlbumID: "A1"},
		{ID: "1003", DisplayName: "三", AlbumID: "A1"},
		{ID: "1004", DisplayName: "Four", AlbumID: "A1"},
		{ID: "1005", DisplayName: "Five", AlbumID: "A1"},
	}
}

func getJSON(t *testing.T, url string, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
}

func TestGetRound(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	for i := 0; i < 50; i++ {
		var round roundResponse
		getJSON(t, srv.URL+"/api/round", http.StatusOK, &round)

		if len(round.Candidates) != 4 {
			t.Fatalf("expected 4 candidates, got %d", len(round.Candidates))
		}
		seen := map[string]bool{}
		hasCorrect := false
		for _, c := range round.Candidates {
			if seen[c.ID] {
				t.Fatalf("duplicate candidate %s", c.ID)
			}
			seen[c.ID] = true
			hasCorrect = hasCorrect || c.ID == round.Correct.ID
		}
		if !hasCorrect {
			t.Fatal("correct answer missing from candidates")
		}
		if round.CoverURL != "https://cdn.example/a1.jpg" {
			t.Errorf("unexpected cover %q", round.CoverURL)
		}
	}
}

func TestGetRoundEnglishOnly(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	for i := 0; i < 30; i++ {
		var round roundResponse
		getJSON(t, srv.URL+"/api/round?englishOnly=true", http.StatusOK, &round)
		for _, c := range round.Candidates {
			if catalog.ContainsCJK(c.DisplayName) {
				t.Fatalf("CJK track %q returned with englishOnly", c.DisplayName)
			}
		}
	}

	getJSON(t, srv.URL+"/api/round?englishOnly=perhaps", http.StatusBadRequest, nil)
}

func TestGetRoundEmptyCatalog(t *testing.T) {
	srv := newTestServer(t, nil)

	var body map[string]string
	getJSON(t, srv.URL+"/api/round", http.StatusConflict, &body)
	if body["error"] == "" {
		t.Error("expected error message")
	}
}

func TestFetchAudio(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	var resp fetch.DescriptorResponse
	getJSON(t, srv.URL+"/api/fetch-audio?songCID=1001", http.StatusOK, &resp)
	if resp.Data.SourceURL != "https://cdn.example/1001.mp3" {
		t.Errorf("unexpected source %q", resp.Data.SourceURL)
	}

	getJSON(t, srv.URL+"/api/fetch-audio?songCID=9999", http.StatusBadGateway, nil)
	getJSON(t, srv.URL+"/api/fetch-audio", http.StatusBadRequest, nil)
}

func TestFetchAlbumArt(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	resp, err := http.Get(srv.URL + "/api/fetch-album-art?albumLink=https://cdn.example/a1.jpg")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("unexpected content type %q", ct)
	}

	raw, err := http.Get(srv.URL + "/api/fetch-album-art?albumLink=https://cdn.example/raw")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer raw.Body.Close()
	if ct := raw.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected sniffed content type, got %q", ct)
	}

	getJSON(t, srv.URL+"/api/fetch-album-art?albumLink=https://cdn.example/missing", http.StatusBadGateway, nil)
	getJSON(t, srv.URL+"/api/fetch-album-art", http.StatusBadRequest, nil)
}

func TestGetLyrics(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	tests := []struct {
		name string
		id   string
		want lyrics.Track
	}{
		{"synced lyrics", "1001", lyrics.Track{{Time: 0, Text: "a"}, {Time: 5, Text: "b"}, {Time: 10, Text: "c"}}},
		{"no lyric url", "1002", lyrics.Track{}},
		{"lyric fetch fails", "1003", lyrics.Track{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got lyrics.Track
			getJSON(t, srv.URL+"/api/lyrics?songCID="+tt.id, http.StatusOK, &got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lyrics mismatch (-want +got):\n%s", diff)
			}
		})
	}

	getJSON(t, srv.URL+"/api/lyrics?songCID=9999", http.StatusBadGateway, nil)
}

func TestGetLyricLine(t *testing.T) {
	srv := newTestServer(t, fiveTracks())

	tests := []struct {
		t    string
		want int
	}{
		{"7", 1},
		{"0", 0},
		{"100", 2},
		{"-1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.t, func(t *testing.T) {
			var got struct {
				Index int               `json:"index"`
				Line  *lyrics.TimedLine `json:"line"`
			}
			getJSON(t, srv.URL+"/api/lyrics/line?songCID=1001&t="+tt.t, http.StatusOK, &got)
			if got.Index != tt.want {
				t.Errorf("index = %d, want %d", got.Index, tt.want)
			}
			if got.Line == nil {
				t.Error("expected the active line in the response")
			}
		})
	}

	getJSON(t, srv.URL+"/api/lyrics/line?songCID=1001&t=soon", http.StatusBadRequest, nil)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}
