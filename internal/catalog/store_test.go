package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenStore returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreImportAndRead(t *testing.T) {
	src, err := Decode(strings.NewReader(songsJSON), strings.NewReader(albumsJSON))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	ctx := context.Background()
	tracks, _ := src.Tracks(ctx)

	store := openTestStore(t)
	if err := store.Import(ctx, tracks, src.Albums()); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	got, err := store.Tracks(ctx)
	if err != nil {
		t.Fatalf("Tracks returned error: %v", err)
	}
	if diff := cmp.Diff(tracks, got); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}

	album, err := store.Album(ctx, "A1")
	if err != nil {
		t.Fatalf("Album returned error: %v", err)
	}
	if album.CoverImageRef != "https://cdn.example/a1.jpg" {
		t.Errorf("unexpected cover %q", album.CoverImageRef)
	}

	track, err := store.Track(ctx, "1002")
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if track.DisplayName != "夜明けの歌" {
		t.Errorf("unexpected name %q", track.DisplayName)
	}
}

func TestStoreImportUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := []Track{{ID: "1", DisplayName: "Old", AlbumID: "A"}}
	if err := store.Import(ctx, first, nil); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	second := []Track{{ID: "1", DisplayName: "New", AlbumID: "A"}, {ID: "2", DisplayName: "Two", AlbumID: "A"}}
	if err := store.Import(ctx, second, nil); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	count, err := store.CountTracks(ctx)
	if err != nil {
		t.Fatalf("CountTracks returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 tracks, got %d", count)
	}

	track, err := store.Track(ctx, "1")
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if track.DisplayName != "New" {
		t.Errorf("expected upserted name, got %q", track.DisplayName)
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.Track(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Album(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
