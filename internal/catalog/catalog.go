package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrNotFound = errors.New("not found")

// selectable song
type Track struct {
	ID          string   `json:"cid" gorm:"primaryKey"`
	DisplayName string   `json:"name"`
	AlbumID     string   `json:"albumCid" gorm:"index"`
	Artists     []string `json:"artistes,omitempty" gorm:"serializer:json"`
}

// IsExcludableByScript reports whether the display name contains a CJK
// unified ideograph and is therefore dropped by the English-only filter.
func (t Track) IsExcludableByScript() bool {
	return ContainsCJK(t.DisplayName)
}

func (t Track) String() string {
	str := `"` + t.DisplayName + `"`
	if len(t.Artists) > 0 {
		str += ` by ` + strings.Join(t.Artists, ", ")
	}
	return str
}

type Album struct {
	ID            string `json:"cid" gorm:"primaryKey"`
	Name          string `json:"name,omitempty"`
	CoverImageRef string `json:"coverUrl"`
}

// ContainsCJK reports whether s has a rune in U+4E00..U+9FFF.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if r >= '\u4E00' && r <= '\u9FFF' {
			return true
		}
	}
	return false
}

// read-only view over the song catalog, alive for the whole process
type Repository interface {
	Tracks(ctx context.Context) ([]Track, error)
	Track(ctx context.Context, id string) (Track, error)
	Album(ctx context.Context, id string) (Album, error)
}

// immutable in-memory catalog
type Catalog struct {
	tracks     []Track
	trackIndex map[string]int
	albums     map[string]Album
}

func New(tracks []Track, albums []Album) *Catalog {
	c := &Catalog{
		tracks:     make([]Track, len(tracks)),
		trackIndex: make(map[string]int, len(tracks)),
		albums:     make(map[string]Album, len(albums)),
	}
	copy(c.tracks, tracks)
	for i, t := range c.tracks {
		c.trackIndex[t.ID] = i
	}
	for _, a := range albums {
		c.albums[a.ID] = a
	}
	return c
}

// LoadJSON reads the songs and albums datasets from disk.
func LoadJSON(songsPath, albumsPath string) (*Catalog, error) {
	songs, err := os.Open(songsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open songs: %w", err)
	}
	defer songs.Close()

	albums, err := os.Open(albumsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open albums: %w", err)
	}
	defer albums.Close()

	return Decode(songs, albums)
}

// Decode builds a Catalog from JSON arrays of tracks and albums.
func Decode(songs, albums io.Reader) (*Catalog, error) {
	var tracks []Track
	if err := json.NewDecoder(songs).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}

	var albumList []Album
	if err := json.NewDecoder(albums).Decode(&albumList); err != nil {
		return nil, fmt.Errorf("failed to decode albums: %w", err)
	}

	return New(tracks, albumList), nil
}

// Tracks returns a copy of all tracks in catalog order.
func (c *Catalog) Tracks(ctx context.Context) ([]Track, error) {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out, nil
}

func (c *Catalog) Track(ctx context.Context, id string) (Track, error) {
	i, ok := c.trackIndex[id]
	if !ok {
		return Track{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return c.tracks[i], nil
}

func (c *Catalog) Album(ctx context.Context, id string) (Album, error) {
	a, ok := c.albums[id]
	if !ok {
		return Album{}, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// Albums returns all albums; order is unspecified.
func (c *Catalog) Albums() []Album {
	out := make([]Album, 0, len(c.albums))
	for _, a := range c.albums {
		out = append(out, a)
	}
	return out
}

// CoverRef resolves the cover image reference of a track's album.
func CoverRef(ctx context.Context, repo Repository, track Track) (string, error) {
	album, err := repo.Album(ctx, track.AlbumID)
	if err != nil {
		return "", err
	}
	return album.CoverImageRef, nil
}
