package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Track is a voice file placed at an offset on the timeline.
type Track struct {
	Path   string
	Offset float64 // seconds
}

// Options describe the output stream.
type Options struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	// Duration in seconds bounds the output so trailing audio cannot
	// extend it.
	Duration float64
}

// Encoder turns an ordered stream of frames into a video file.
type Encoder interface {
	EncodeFrames(ctx context.Context, frames <-chan *image.RGBA, audio []Track, out string, opts Options) error
}

// FFmpegEncoder pipes raw RGBA frames into ffmpeg over stdin.
type FFmpegEncoder struct {
	Log logrus.FieldLogger
	// Release is called once a frame has been written.
	Release func(*image.RGBA)
}

func (e *FFmpegEncoder) EncodeFrames(ctx context.Context, frames <-chan *image.RGBA, audio []Track, out string, opts Options) error {
	args := buildArgs(audio, out, opts)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, n: 64 << 10}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "stdin pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "ffmpeg start")
	}
	if e.Log != nil {
		e.Log.WithFields(logrus.Fields{"encoder": opts.Encoder, "tracks": len(audio), "output": out}).Debug("ffmpeg started")
	}

	written := 0
	var writeErr error
	for frame := range frames {
		if writeErr == nil {
			writeErr = writeRawRGBA(stdin, frame)
			written++
		}
		if e.Release != nil {
			e.Release(frame)
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return errors.Wrapf(err, "ffmpeg: %s", lastLines(stderr.String(), 5))
	}
	if writeErr != nil {
		return errors.Wrapf(writeErr, "write frame %d", written)
	}
	return nil
}

func buildArgs(audio []Track, out string, opts Options) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
	}
	for _, t := range audio {
		args = append(args, "-i", t.Path)
	}

	args = append(args, "-map", "0:v")
	if graph, label := audioGraph(audio); graph != "" {
		args = append(args, "-filter_complex", graph, "-map", label, "-c:a", audioCodec(out), "-b:a", "192k")
	}

	args = append(args, "-c:v", opts.Encoder, "-pix_fmt", pixelFormat(opts.Encoder))
	args = append(args, qualityArgs(opts.Encoder, opts.Quality)...)
	if opts.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", opts.Duration))
	}
	if ext := strings.ToLower(filepath.Ext(out)); ext == ".mp4" || ext == ".mov" {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, out)
}

// audioGraph delays every track to its offset and mixes them into one
// stream. Input 0 is the video pipe.
func audioGraph(audio []Track) (graph, label string) {
	if len(audio) == 0 {
		return "", ""
	}
	var b strings.Builder
	for i, t := range audio {
		ms := int64(t.Offset * 1000)
		fmt.Fprintf(&b, "[%d:a]adelay=delays=%d:all=1[a%d];", i+1, max(ms, 0), i)
	}
	if len(audio) == 1 {
		return strings.TrimSuffix(b.String(), ";"), "[a0]"
	}
	for i := range audio {
		fmt.Fprintf(&b, "[a%d]", i)
	}
	fmt.Fprintf(&b, "amix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]", len(audio))
	return b.String(), "[aout]"
}

// Качество в зависимости от энкодера
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox", "hevc_videotoolbox":
		// VideoToolbox не везде поддерживает -q:v, поэтому битрейт. 75 -> 7.5 Мбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc", "hevc_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	case "libvpx", "libvpx-vp9":
		return []string{"-crf", fmt.Sprintf("%d", quality), "-b:v", "0"}
	case "prores_ks":
		return []string{"-profile:v", "3"}
	default: // libx264, libx265
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func pixelFormat(encoder string) string {
	if encoder == "prores_ks" {
		return "yuv422p10le"
	}
	return "yuv420p"
}

func audioCodec(out string) string {
	if strings.EqualFold(filepath.Ext(out), ".webm") {
		return "libopus"
	}
	return "aac"
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rectangle{Max: bounds.Size()})
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix[:bounds.Dx()*bounds.Dy()*4])
	return err
}

// limitedWriter keeps at most n bytes and drops the rest.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return len(p), nil
	}
	keep := p
	if len(keep) > l.n {
		keep = keep[:l.n]
	}
	l.n -= len(keep)
	if _, err := l.w.Write(keep); err != nil {
		return 0, err
	}
	return len(p), nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
