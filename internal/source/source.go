// Package source loads scene images from local files, URLs and PDF pages.
package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Kind is where an image reference points.
type Kind int

const (
	KindFile Kind = iota
	KindURL
)

// DefaultDPI renders PDF pages sharp enough for the 960px image area.
const DefaultDPI = 150

// maxDownloadBytes bounds a remote asset.
const maxDownloadBytes = 64 << 20

// Ref is a parsed image reference. Page is 1-based and only set for PDFs.
type Ref struct {
	Kind     Kind
	Location string
	Page     int
}

// IsPDF reports whether the reference names a PDF page.
func (r Ref) IsPDF() bool {
	return r.Page > 0
}

// ParseRef understands "photo.jpg", "https://cdn/photo.jpg" and
// "deck.pdf#page=3". A PDF without a page selects the first.
func ParseRef(ref string) (Ref, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Ref{}, fmt.Errorf("empty image reference")
	}

	loc, frag, _ := strings.Cut(ref, "#")
	r := Ref{Kind: KindFile, Location: loc}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		if _, err := url.Parse(loc); err != nil {
			return Ref{}, fmt.Errorf("invalid image url %q: %w", loc, err)
		}
		r.Kind = KindURL
	}

	if isPDF(loc) {
		r.Page = 1
		if page, ok := strings.CutPrefix(frag, "page="); ok {
			n, err := strconv.Atoi(page)
			if err != nil || n < 1 {
				return Ref{}, fmt.Errorf("invalid page in %q", ref)
			}
			r.Page = n
		}
	}
	return r, nil
}

func isPDF(loc string) bool {
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		loc = u.Path
	}
	return strings.EqualFold(filepath.Ext(loc), ".pdf")
}

// Assets loads and caches the images of one render job. It is safe for
// concurrent use.
type Assets struct {
	PublicDir string
	Client    *http.Client
	DPI       int

	mu     sync.Mutex
	images map[string]image.Image
	docs   map[string]*PDFSource
}

// NewAssets resolves relative paths under publicDir.
func NewAssets(publicDir string, client *http.Client) *Assets {
	if client == nil {
		client = http.DefaultClient
	}
	return &Assets{
		PublicDir: publicDir,
		Client:    client,
		DPI:       DefaultDPI,
		images:    make(map[string]image.Image),
		docs:      make(map[string]*PDFSource),
	}
}

// Load returns the decoded image for ref, fetching it at most once.
func (a *Assets) Load(ctx context.Context, ref string) (image.Image, error) {
	a.mu.Lock()
	img, ok := a.images[ref]
	a.mu.Unlock()
	if ok {
		return img, nil
	}

	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if r.IsPDF() {
		img, err = a.loadPage(ctx, r)
	} else {
		img, err = a.loadImage(ctx, r)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}

	a.mu.Lock()
	a.images[ref] = img
	a.mu.Unlock()
	return img, nil
}

// Cached reports whether ref has been loaded.
func (a *Assets) Cached(ref string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.images[ref]
	return ok
}

func (a *Assets) loadImage(ctx context.Context, r Ref) (image.Image, error) {
	if r.Kind == KindURL {
		data, err := a.download(ctx, r.Location)
		if err != nil {
			return nil, err
		}
		return DecodeBytes(data)
	}
	return DecodeFile(a.localPath(r.Location))
}

func (a *Assets) loadPage(ctx context.Context, r Ref) (image.Image, error) {
	a.mu.Lock()
	doc, ok := a.docs[r.Location]
	a.mu.Unlock()

	if !ok {
		var err error
		if r.Kind == KindURL {
			var data []byte
			if data, err = a.download(ctx, r.Location); err == nil {
				doc, err = NewPDFSourceFromMemory(data)
			}
		} else {
			doc, err = NewPDFSource(a.localPath(r.Location))
		}
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		if existing, ok := a.docs[r.Location]; ok {
			doc.Close()
			doc = existing
		} else {
			a.docs[r.Location] = doc
		}
		a.mu.Unlock()
	}

	if r.Page > doc.PageCount() {
		return nil, fmt.Errorf("page %d out of range (%d pages)", r.Page, doc.PageCount())
	}
	dpi := a.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return doc.RenderPage(r.Page-1, dpi)
}

func (a *Assets) localPath(loc string) string {
	if filepath.IsAbs(loc) {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return filepath.Join(a.PublicDir, filepath.FromSlash(strings.TrimPrefix(loc, "/")))
}

func (a *Assets) download(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// Close releases the opened PDF documents.
func (a *Assets) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first error
	for loc, doc := range a.docs {
		if err := doc.Close(); err != nil && first == nil {
			first = err
		}
		delete(a.docs, loc)
	}
	return first
}
