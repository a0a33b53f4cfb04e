package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/system"
)

type stats struct {
	input     *props.VideoProps
	frames    int
	total     time.Duration
	prepare   time.Duration
	rendering time.Duration
}

func (s stats) fps() float64 {
	if s.total <= 0 {
		return 0
	}
	return float64(s.frames) / s.total.Seconds()
}

// report печатает сводку и дописывает строку в benchmark.log.
func (p *Project) report(s stats) {
	host := "unknown"
	if hs, err := system.ReadHostStats(); err == nil {
		host = hs.String()
	}

	fmt.Fprintf(p.Out,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Host: %s\n"+
			"Total Time: %.2fs\n"+
			"Preparation: %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, host, s.total.Seconds(), s.prepare.Seconds(), s.rendering.Seconds(), s.fps(),
	)

	if p.BenchmarkLog == "" {
		return
	}
	title := s.input.Title
	if title == "" {
		title = "-"
	}
	entry := fmt.Sprintf("[%s] Build: %s | Title: %s | Scenes: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		title,
		len(s.input.Media),
		s.frames,
		s.total.Seconds(),
		s.rendering.Seconds(),
		s.fps(),
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(p.Out, "[!] Не удалось записать %s: %v\n", p.BenchmarkLog, err)
		return
	}
	defer f.Close()
	f.WriteString(entry)
}
