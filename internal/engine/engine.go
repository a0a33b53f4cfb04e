// Package engine runs render jobs: props in, video or still out.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/compositor"
	"github.com/ivlev/scenevideo/internal/config"
	"github.com/ivlev/scenevideo/internal/enrich"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/renderer"
	"github.com/ivlev/scenevideo/internal/source"
	"github.com/ivlev/scenevideo/internal/system"
	"github.com/ivlev/scenevideo/internal/video"
)

// ErrSegmentMissing is returned when the encoder input ends before every
// frame was painted.
var ErrSegmentMissing = errors.New("сегмент не был создан")

// Enricher fills in fetched scene data before a render.
type Enricher interface {
	Enrich(ctx context.Context, p *props.VideoProps) (*props.VideoProps, enrich.Report, error)
}

// Assets loads scene images for one job.
type Assets interface {
	Load(ctx context.Context, ref string) (image.Image, error)
	Close() error
}

// Result is the outcome of one render. A job either fully succeeds or
// fails with a message.
type Result struct {
	Success    bool          `json:"success"`
	OutputPath string        `json:"outputPath,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Frames     int           `json:"frames,omitempty"`
	Enrichment enrich.Report `json:"enrichment"`
}

// Options override the project configuration for one render.
type Options struct {
	OutputPath  string
	Codec       string
	Concurrency int
	Verbose     bool
	JPEGQuality int
}

// Project wires the render pipeline.
type Project struct {
	Config     *config.Config
	Log        logrus.FieldLogger
	Registry   *animation.Registry
	Validator  *props.Validator
	Enricher   Enricher
	Encoder    video.Encoder
	Compositor *compositor.Compositor
	NewAssets  func() Assets
	// Out receives the progress lines and the performance report.
	Out io.Writer
	// BenchmarkLog is appended to when ShowStats is on; empty disables it.
	BenchmarkLog string
}

// NewProject builds a project with the default components for cfg.
func NewProject(cfg *config.Config, log logrus.FieldLogger) (*Project, error) {
	comp, err := compositor.New(cfg.Width, cfg.Height, cfg.FontPath)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	return &Project{
		Config:     cfg,
		Log:        log,
		Registry:   animation.Default(),
		Validator:  props.NewValidator(),
		Enricher:   enrich.New(enrich.FFProbe{PublicDir: cfg.PublicDir}, enrich.HTTPFetcher{Client: client}, log),
		Encoder:    &video.FFmpegEncoder{Log: log, Release: system.PutImage},
		Compositor: comp,
		NewAssets: func() Assets {
			return source.NewAssets(cfg.PublicDir, client)
		},
		Out:          os.Stdout,
		BenchmarkLog: "benchmark.log",
	}, nil
}

// job is a validated, enriched and laid out render.
type job struct {
	props    *props.VideoProps
	seq      *renderer.Sequence
	eval     *renderer.Evaluator
	images   []image.Image
	assets   Assets
	report   enrich.Report
	prepared time.Duration
}

func (j *job) close() {
	if j.assets != nil {
		j.assets.Close()
	}
}

// prepare validates p, enriches a copy, checks it can be rendered, lays out
// the timeline and loads the scene images.
func (p *Project) prepare(ctx context.Context, in *props.VideoProps) (*job, error) {
	start := time.Now()
	if err := p.Validator.Validate(in); err != nil {
		return nil, err
	}

	enriched, rep, err := p.Enricher.Enrich(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	if err := props.CheckRenderable(enriched); err != nil {
		return nil, err
	}
	props.ApplyDefaults(enriched)

	eval := renderer.NewEvaluator(p.Registry, p.Config.FPS)
	j := &job{
		props:  enriched,
		seq:    eval.Prepare(enriched),
		eval:   eval,
		images: make([]image.Image, len(enriched.Media)),
		assets: p.NewAssets(),
		report: rep,
	}

	for i, s := range enriched.Media {
		if s.Image == nil || s.Image.URL == "" {
			continue
		}
		img, err := j.assets.Load(ctx, s.Image.URL)
		if err != nil {
			if ctx.Err() != nil {
				j.close()
				return nil, ctx.Err()
			}
			// сцена рендерится с заглушкой вместо картинки
			p.Log.WithFields(logrus.Fields{"scene": i, "image": s.Image.URL}).WithError(err).Warn("image load failed")
			continue
		}
		j.images[i] = img
	}
	j.prepared = time.Since(start)
	return j, nil
}

// RenderVideo renders p to a video file.
func (p *Project) RenderVideo(ctx context.Context, in *props.VideoProps, opts Options) Result {
	start := time.Now()
	fail := func(err error) Result {
		p.Log.WithError(err).Error("render failed")
		return Result{Error: err.Error(), Duration: time.Since(start)}
	}

	out := opts.OutputPath
	if out == "" {
		out = filepath.Join(p.Config.OutputDir, fmt.Sprintf("video_%d.mp4", time.Now().UnixMilli()))
	}
	encOpts, err := p.encodeOptions(opts)
	if err != nil {
		return fail(err)
	}

	j, err := p.prepare(ctx, in)
	if err != nil {
		return fail(err)
	}
	defer j.close()

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fail(err)
	}

	total := j.seq.TotalFrames()
	encOpts.Duration = float64(total) / float64(p.Config.FPS)
	if opts.Verbose {
		fmt.Fprintln(p.Out, "--- [PROJECT: SCENE VIDEO] ---")
		fmt.Fprintf(p.Out, "[*] Scenes: %d | Frames: %d (%.2fs)\n", len(j.props.Media), total, encOpts.Duration)
		fmt.Fprintf(p.Out, "[*] Resolution: %dx%d @ %d FPS | Encoder: %s\n", encOpts.Width, encOpts.Height, encOpts.FPS, encOpts.Encoder)
		fmt.Fprintln(p.Out, "-----------------------------")
	}

	renderStart := time.Now()
	workers := opts.Concurrency
	if workers <= 0 {
		workers = p.Config.Workers
	}
	if err := p.run(ctx, j, workers, p.tracks(j), out, encOpts, opts.Verbose); err != nil {
		os.Remove(out)
		return fail(err)
	}

	res := Result{
		Success:    true,
		OutputPath: out,
		Duration:   time.Since(start),
		Frames:     total,
		Enrichment: j.report,
	}
	p.Log.WithFields(logrus.Fields{"output": out, "frames": total, "duration_ms": res.Duration.Milliseconds()}).Info("render finished")
	if p.Config.ShowStats {
		p.report(stats{
			input:     in,
			frames:    total,
			total:     res.Duration,
			prepare:   j.prepared,
			rendering: time.Since(renderStart),
		})
	}
	return res
}

// RenderStill renders the frame at the given global index to a PNG or
// JPEG. Frames outside the timeline clamp to its ends.
func (p *Project) RenderStill(ctx context.Context, in *props.VideoProps, frame int, opts Options) Result {
	start := time.Now()
	fail := func(err error) Result {
		p.Log.WithError(err).Error("still failed")
		return Result{Error: err.Error(), Duration: time.Since(start)}
	}

	j, err := p.prepare(ctx, in)
	if err != nil {
		return fail(err)
	}
	defer j.close()

	out := opts.OutputPath
	if out == "" {
		out = filepath.Join(p.Config.OutputDir, fmt.Sprintf("still_%d.png", time.Now().UnixMilli()))
	}
	frame = min(max(frame, 0), j.seq.TotalFrames()-1)

	painter := p.Compositor.NewPainter(j.props)
	defer painter.Close()

	dst := image.NewRGBA(image.Rect(0, 0, p.Compositor.Width, p.Compositor.Height))
	fs := j.eval.Evaluate(j.seq, frame)
	painter.Paint(dst, fs, j.images[fs.SceneIndex])

	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = p.Config.JPEGQuality
	}
	if err := video.WriteStill(dst, out, quality); err != nil {
		return fail(err)
	}
	return Result{Success: true, OutputPath: out, Duration: time.Since(start), Frames: 1, Enrichment: j.report}
}

func (p *Project) encodeOptions(opts Options) (video.Options, error) {
	seg := p.Config.Segment()
	enc := seg.Encoder
	if opts.Codec != "" || enc == "" {
		codec := opts.Codec
		if codec == "" {
			codec = p.Config.Codec
		}
		var err error
		if enc, err = system.EncoderFor(codec); err != nil {
			return video.Options{}, err
		}
	}
	quality := p.Config.Quality
	if quality <= 0 {
		quality = config.DefaultQuality(enc)
	}
	return video.Options{
		Width:   p.Compositor.Width,
		Height:  p.Compositor.Height,
		FPS:     seg.FPS,
		Encoder: enc,
		Quality: quality,
	}, nil
}

// tracks places each scene's voice at the scene start.
func (p *Project) tracks(j *job) []video.Track {
	probe := enrich.FFProbe{PublicDir: p.Config.PublicDir}
	var out []video.Track
	for i, s := range j.props.Media {
		if s.Voice == "" {
			continue
		}
		out = append(out, video.Track{
			Path:   probe.Resolve(s.Voice),
			Offset: float64(j.seq.Timeline.Offsets[i]) / float64(p.Config.FPS),
		})
	}
	return out
}
