// Package server exposes rendering over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/config"
	"github.com/ivlev/scenevideo/internal/engine"
	"github.com/ivlev/scenevideo/internal/jobs"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/storage"
)

// QRSize is the side of generated share codes in pixels.
const QRSize = 512

// Renderer turns props into a video file.
type Renderer interface {
	RenderVideo(ctx context.Context, p *props.VideoProps, opts engine.Options) engine.Result
}

type Deps struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	Renderer Renderer
	Fetcher  PropsFetcher
	Uploader storage.Uploader
	Jobs     jobs.Store
	Registry *animation.Registry
}

type Server struct {
	Deps
	app *fiber.App

	// background renders outlive their request but not the server
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(d Deps) *Server {
	if d.Jobs == nil {
		d.Jobs = jobs.NewMemoryStore()
	}
	if d.Registry == nil {
		d.Registry = animation.Default()
	}
	if d.Fetcher == nil {
		d.Fetcher = HTTPPropsFetcher{}
	}
	if d.Uploader == nil {
		d.Uploader = storage.FileStore{Dir: d.Config.OutputDir, BaseURL: "/output"}
	}

	s := &Server{Deps: d}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.app = fiber.New(fiber.Config{
		AppName:               "scenevideo",
		BodyLimit:             maxPropsBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(RequestLogger(s.Log))

	s.app.Get("/health", s.health)
	s.app.Post("/render", s.render)
	s.app.Get("/jobs/:id", s.job)
	s.app.Get("/animations", s.animations)
	s.app.Static("/output", s.Config.OutputDir)

	s.app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Not found",
			"message": fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()),
		})
	})
}

// App returns the fiber application, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.Config.Port)
	s.Log.WithField("addr", addr).Info("server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests, cancels background renders and waits
// for them to record their outcome.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.Config.BuildVersion,
	})
}

type renderRequest struct {
	InputURL string `json:"inputUrl"`
	Async    bool   `json:"async"`
	QR       bool   `json:"qr"`
}

// outcome is what a finished render request reports.
type outcome struct {
	VideoURL string
	QRURL    string
}

func (s *Server) render(c *fiber.Ctx) error {
	start := time.Now()
	var req renderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}
	req.InputURL = strings.TrimSpace(req.InputURL)
	if req.InputURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "inputUrl is required"})
	}

	if req.Async {
		job := jobs.New(req.InputURL)
		if err := s.Jobs.Put(c.Context(), job); err != nil {
			return err
		}
		s.wg.Add(1)
		go s.runJob(job, req)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success": true,
			"jobId":   job.ID,
			"status":  job.Status,
		})
	}

	out, err := s.process(c.UserContext(), req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":  false,
			"error":    err.Error(),
			"duration": duration,
		})
	}
	body := fiber.Map{
		"success":  true,
		"message":  "Video rendering and upload completed successfully",
		"videoUrl": out.VideoURL,
		"duration": duration,
	}
	if out.QRURL != "" {
		body["qrUrl"] = out.QRURL
	}
	return c.JSON(body)
}

func (s *Server) runJob(job *jobs.Job, req renderRequest) {
	defer s.wg.Done()
	log := s.Log.WithField("job_id", job.ID)
	start := time.Now()

	job.Status = jobs.StatusRunning
	if err := s.Jobs.Put(s.ctx, job); err != nil {
		log.WithError(err).Warn("job status update failed")
	}

	out, err := s.process(s.ctx, req)
	job.Duration = time.Since(start).Milliseconds()
	if err != nil {
		job.Status, job.Error = jobs.StatusFailed, err.Error()
	} else {
		job.Status, job.VideoURL, job.QRURL = jobs.StatusSucceeded, out.VideoURL, out.QRURL
	}

	// the final state is recorded even after shutdown started
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Jobs.Put(ctx, job); err != nil {
		log.WithError(err).Error("job status update failed")
	}
	log.WithField("status", job.Status).Info("job finished")
}

// process fetches the props, renders, publishes the video and removes the
// local copy.
func (s *Server) process(ctx context.Context, req renderRequest) (outcome, error) {
	log := s.Log.WithField("input_url", req.InputURL)

	p, err := s.Fetcher.Fetch(ctx, req.InputURL)
	if err != nil {
		return outcome{}, err
	}
	target, err := storage.DeriveTarget(req.InputURL, s.Config.Supabase.Bucket)
	if err != nil {
		return outcome{}, err
	}

	local := filepath.Join(s.Config.OutputDir, fmt.Sprintf("video_%d.mp4", time.Now().UnixMilli()))
	res := s.Renderer.RenderVideo(ctx, p, engine.Options{
		OutputPath: local,
		Codec:      "h264",
		Verbose:    s.Config.Verbose,
	})
	if !res.Success {
		return outcome{}, errors.New(res.Error)
	}

	url, err := s.Uploader.Upload(ctx, local, target)
	if err != nil {
		os.Remove(local)
		return outcome{}, err
	}
	log.WithFields(logrus.Fields{"target": target.String(), "url": url}).Info("video published")
	if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("local file cleanup failed")
	}

	out := outcome{VideoURL: url}
	if req.QR {
		name := strings.ReplaceAll(strings.TrimSuffix(target.Path, filepath.Ext(target.Path)), "/", "_") + ".png"
		if err := storage.WriteQR(url, filepath.Join(s.Config.OutputDir, "qr", name), QRSize); err != nil {
			log.WithError(err).Warn("qr code failed")
		} else {
			out.QRURL = "/output/qr/" + name
		}
	}
	return out, nil
}

func (s *Server) job(c *fiber.Ctx) error {
	job, err := s.Jobs.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Job not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "job": job})
}

func (s *Server) animations(c *fiber.Ctx) error {
	cat := animation.Category(c.Query("category"))
	if cat != "" && !knownCategory(cat) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("unknown category %q", cat),
		})
	}
	return c.JSON(fiber.Map{"success": true, "animations": s.Registry.Describe(cat)})
}

func knownCategory(cat animation.Category) bool {
	for _, c := range animation.Categories {
		if c == cat {
			return true
		}
	}
	return false
}
