package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ivlev/scenevideo/internal/props"
)

// maxPropsBytes bounds a downloaded props document.
const maxPropsBytes = 50 << 20

// PropsFetcher downloads the props document a render request points at.
type PropsFetcher interface {
	Fetch(ctx context.Context, url string) (*props.VideoProps, error)
}

// HTTPPropsFetcher reads JSON props over HTTP.
type HTTPPropsFetcher struct {
	Client *http.Client
}

func (h HTTPPropsFetcher) Fetch(ctx context.Context, url string) (*props.VideoProps, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch JSON from %s: %s", url, resp.Status)
	}
	return props.Decode(io.LimitReader(resp.Body, maxPropsBytes), props.FormatJSON)
}
