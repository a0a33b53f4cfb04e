// Package enrich fills in scene data that has to be fetched before a
// render: voice track durations and remote script text.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/system"
	"github.com/ivlev/scenevideo/internal/timing"
)

const (
	// BatchSize is the number of concurrent fetches.
	BatchSize = 2
	// BatchDelay separates consecutive batches.
	BatchDelay = 100 * time.Millisecond
	// ScriptPlaceholder replaces script text that could not be fetched.
	ScriptPlaceholder = "스크립트를 불러올 수 없습니다."
	// maxScriptBytes bounds a fetched script.
	maxScriptBytes = 1 << 20
)

// AudioProber measures the length of a voice track in seconds.
type AudioProber interface {
	Duration(ctx context.Context, src string) (float64, error)
}

// ScriptFetcher downloads script text.
type ScriptFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FFProbe measures tracks with ffprobe. Relative paths resolve under PublicDir.
type FFProbe struct {
	PublicDir string
}

func (f FFProbe) Duration(ctx context.Context, src string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return system.GetAudioDuration(f.Resolve(src))
}

// Resolve maps a voice reference onto something ffprobe can open.
func (f FFProbe) Resolve(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if filepath.IsAbs(src) {
		if _, err := os.Stat(src); err == nil {
			return src
		}
	}
	return filepath.Join(f.PublicDir, filepath.FromSlash(strings.TrimPrefix(src, "/")))
}

// HTTPFetcher fetches scripts over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

func (h HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Report counts what enrichment did.
type Report struct {
	Durations      int `json:"durations"`
	DurationErrors int `json:"durationErrors"`
	Scripts        int `json:"scripts"`
	ScriptErrors   int `json:"scriptErrors"`
}

// Enricher fetches missing scene data in small delayed batches.
type Enricher struct {
	Audio     AudioProber
	Scripts   ScriptFetcher
	Log       logrus.FieldLogger
	BatchSize int
	Delay     time.Duration
}

// New returns an Enricher with the default batching.
func New(audio AudioProber, scripts ScriptFetcher, log logrus.FieldLogger) *Enricher {
	return &Enricher{Audio: audio, Scripts: scripts, Log: log, BatchSize: BatchSize, Delay: BatchDelay}
}

// Enrich returns a copy of p with audio durations and script text filled
// in. Item failures degrade to a three second duration or the placeholder
// text; only cancellation of ctx is returned as an error.
func (e *Enricher) Enrich(ctx context.Context, p *props.VideoProps) (*props.VideoProps, Report, error) {
	out := p.Clone()
	var rep Report

	var scripts, audio []int
	for i := range out.Media {
		if out.Media[i].NeedsScript() {
			scripts = append(scripts, i)
		}
		if out.Media[i].NeedsAudioDuration() {
			audio = append(audio, i)
		}
	}

	scriptErrs := make([]bool, len(out.Media))
	err := e.inBatches(ctx, scripts, func(ctx context.Context, i int) {
		s := &out.Media[i]
		text, err := e.Scripts.Fetch(ctx, s.Script.URL)
		if err != nil {
			e.Log.WithFields(logrus.Fields{"scene": i, "url": s.Script.URL}).WithError(err).Warn("script fetch failed")
			text = ScriptPlaceholder
			scriptErrs[i] = true
		}
		s.Script.Text = text
	})
	if err != nil {
		return nil, rep, err
	}

	audioErrs := make([]bool, len(out.Media))
	err = e.inBatches(ctx, audio, func(ctx context.Context, i int) {
		s := &out.Media[i]
		d, err := e.Audio.Duration(ctx, s.Voice)
		if err != nil || d <= 0 {
			e.Log.WithFields(logrus.Fields{"scene": i, "voice": s.Voice}).WithError(err).Warn("audio probe failed")
			d = timing.FallbackSceneSeconds
			audioErrs[i] = true
		}
		s.AudioDuration = &d
	})
	if err != nil {
		return nil, rep, err
	}

	rep.Scripts, rep.Durations = len(scripts), len(audio)
	for i := range out.Media {
		if scriptErrs[i] {
			rep.ScriptErrors++
		}
		if audioErrs[i] {
			rep.DurationErrors++
		}
	}
	return out, rep, nil
}

// inBatches runs fn over idx BatchSize at a time, waiting Delay between
// batches. Each index is handled by exactly one goroutine.
func (e *Enricher) inBatches(ctx context.Context, idx []int, fn func(context.Context, int)) error {
	size := e.BatchSize
	if size <= 0 {
		size = BatchSize
	}

	for start := 0; start < len(idx); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, i := range idx[start:min(start+size, len(idx))] {
			g.Go(func() error {
				fn(gctx, i)
				return nil
			})
		}
		g.Wait()

		if start+size < len(idx) && e.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.Delay):
			}
		}
	}
	return ctx.Err()
}
