package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref     string
		kind    Kind
		loc     string
		page    int
		wantErr bool
	}{
		{"images/a.jpg", KindFile, "images/a.jpg", 0, false},
		{"https://cdn.example.com/a.png", KindURL, "https://cdn.example.com/a.png", 0, false},
		{"deck.pdf#page=3", KindFile, "deck.pdf", 3, false},
		{"deck.PDF", KindFile, "deck.PDF", 1, false},
		{"https://cdn.example.com/deck.pdf#page=2", KindURL, "https://cdn.example.com/deck.pdf", 2, false},
		{"deck.pdf#page=0", KindFile, "", 0, true},
		{"deck.pdf#page=x", KindFile, "", 0, true},
		{"   ", KindFile, "", 0, true},
	}

	for _, tt := range tests {
		r, err := ParseRef(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRef(%q): err = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if r.Kind != tt.kind || r.Location != tt.loc || r.Page != tt.page {
			t.Errorf("ParseRef(%q) = %+v", tt.ref, r)
		}
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLocal(t *testing.T) {
	public := t.TempDir()
	os.MkdirAll(filepath.Join(public, "images"), 0755)
	if err := os.WriteFile(filepath.Join(public, "images", "a.png"), pngBytes(t, 8, 4), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewAssets(public, nil)
	defer a.Close()

	img, err := a.Load(context.Background(), "images/a.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	if !a.Cached("images/a.png") {
		t.Error("image should be cached")
	}

	if _, err := a.Load(context.Background(), "images/missing.png"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadURLCached(t *testing.T) {
	data := pngBytes(t, 16, 16)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	a := NewAssets(t.TempDir(), srv.Client())
	for i := 0; i < 3; i++ {
		if _, err := a.Load(context.Background(), srv.URL+"/a.png"); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected one download, got %d", hits.Load())
	}

	if _, err := a.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestDecodeBytesRejectsGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
}
