package assetcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zenstudio/internal/media/wav"
	"zenstudio/internal/services"
)

func sampleWAV(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	return wav.Encode(pcm, wav.DefaultFormat)
}

func TestPutAudioStoresAndResolves(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	data := sampleWAV(128)

	uri, err := store.PutAudio(context.Background(), "s1", data)
	if err != nil {
		t.Fatalf("PutAudio: %v", err)
	}
	if !strings.HasPrefix(uri, "asset://audio/s1-") || !strings.HasSuffix(uri, ".wav") {
		t.Fatalf("unexpected uri %q", uri)
	}
	if !store.Valid(uri) {
		t.Fatalf("expected %q to be valid", uri)
	}
	got, err := store.Read(uri)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("read %d bytes, want %d", len(got), len(data))
	}

	again, err := store.PutAudio(context.Background(), "s1", data)
	if err != nil {
		t.Fatalf("second PutAudio: %v", err)
	}
	if again != uri {
		t.Fatalf("identical payload produced new uri %q (was %q)", again, uri)
	}
}

func TestPutAudioRejectsNonWAV(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	_, err := store.PutAudio(context.Background(), "s1", []byte("definitely not audio"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPutAudioWithoutRoot(t *testing.T) {
	store := NewStore("", nil)
	_, err := store.PutAudio(context.Background(), "s1", sampleWAV(8))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidRejectsForeignAndMissing(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cases := []string{
		"",
		"blob:http://localhost/1234",
		"https://example.com/a.wav",
		"asset://audio/missing.wav",
		"asset://../../etc/passwd",
	}
	for _, uri := range cases {
		if store.Valid(uri) {
			t.Fatalf("expected %q to be invalid", uri)
		}
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if _, err := store.Resolve("asset://../outside.wav"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if _, err := store.Read("asset://audio/nope.wav"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneKeepsReferenced(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx := context.Background()
	keepURI, err := store.PutAudio(ctx, "s1", sampleWAV(16))
	if err != nil {
		t.Fatalf("PutAudio: %v", err)
	}
	dropURI, err := store.PutAudio(ctx, "s2", sampleWAV(32))
	if err != nil {
		t.Fatalf("PutAudio: %v", err)
	}

	result, err := store.Prune(ctx, map[string]struct{}{keepURI: {}})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if result.Kept != 1 || len(result.Removed) != 1 || result.Removed[0] != dropURI {
		t.Fatalf("unexpected prune result %+v", result)
	}
	if result.FreedBytes != int64(wav.HeaderSize+32) {
		t.Fatalf("freed %d bytes", result.FreedBytes)
	}
	if !store.Valid(keepURI) || store.Valid(dropURI) {
		t.Fatalf("prune removed the wrong blob")
	}
}

func TestStats(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if stats.Blobs != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
	if _, err := store.PutAudio(context.Background(), "a", sampleWAV(10)); err != nil {
		t.Fatalf("PutAudio: %v", err)
	}
	if _, err := store.PutAudio(context.Background(), "b", sampleWAV(20)); err != nil {
		t.Fatalf("PutAudio: %v", err)
	}
	stats, err = store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Blobs != 2 || stats.TotalBytes != int64(2*wav.HeaderSize+30) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestExportCopiesBlob(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	data := sampleWAV(64)
	uri, err := store.PutAudio(context.Background(), "s1", data)
	if err != nil {
		t.Fatalf("PutAudio: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "out", "intro.wav")
	if err := store.Export(uri, dst); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("exported bytes differ")
	}
}

func TestSanitizeSegmentID(t *testing.T) {
	cases := map[string]string{
		"s1":          "s1",
		"  ":          "segment",
		"../etc":      "etc",
		"a b/c":       "a_b_c",
		"uuid-1234-x": "uuid-1234-x",
	}
	for in, want := range cases {
		if got := sanitizeSegmentID(in); got != want {
			t.Fatalf("sanitizeSegmentID(%q) = %q, want %q", in, got, want)
		}
	}
}
