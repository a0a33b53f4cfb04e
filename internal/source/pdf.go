package source

import (
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// PDFSource renders pages of a PDF document. MuPDF documents are not safe
// for concurrent use, so rendering is serialized per document.
type PDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc}, nil
}

// NewPDFSourceFromMemory opens a downloaded PDF.
func NewPDFSourceFromMemory(data []byte) (*PDFSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc}, nil
}

func (p *PDFSource) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.NumPage()
}

// RenderPage rasterizes the 0-based page index at dpi.
func (p *PDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.ImageDPI(index, float64(dpi))
}

func (p *PDFSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Close()
}
