package engine

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scenevideo/internal/system"
	"github.com/ivlev/scenevideo/internal/video"
)

// rendered is a painted frame waiting for its turn at the encoder.
type rendered struct {
	index int
	img   *image.RGBA
}

// run paints every frame of j with a pool of workers and streams the frames
// to the encoder in timeline order.
func (p *Project) run(ctx context.Context, j *job, workers int, tracks []video.Track, out string, opts video.Options, verbose bool) error {
	total := j.seq.TotalFrames()
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	workers = min(workers, total)

	g, ctx := errgroup.WithContext(ctx)
	indexes := make(chan int)
	painted := make(chan rendered, workers)
	frames := make(chan *image.RGBA, workers)
	// токены ограничивают число кадров в памяти
	tokens := make(chan struct{}, workers*4)

	g.Go(func() error {
		defer close(indexes)
		for i := 0; i < total; i++ {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case indexes <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	rect := image.Rect(0, 0, opts.Width, opts.Height)
	raster, rctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		raster.Go(func() error {
			// у каждого воркера свой painter: шрифты не потокобезопасны
			painter := p.Compositor.NewPainter(j.props)
			defer painter.Close()
			for i := range indexes {
				dst := system.GetImage(rect)
				fs := j.eval.Evaluate(j.seq, i)
				painter.Paint(dst, fs, j.images[fs.SceneIndex])
				select {
				case painted <- rendered{index: i, img: dst}:
				case <-rctx.Done():
					system.PutImage(dst)
					return rctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(painted)
		return raster.Wait()
	})

	g.Go(func() error {
		defer close(frames)
		return deliverInOrder(ctx, painted, frames, func(i int) {
			<-tokens
			if verbose && total >= 10 && (i+1)%(total/10) == 0 {
				fmt.Fprintf(p.Out, "[>] Ready: %d/%d\n", i+1, total)
			}
		})
	})

	g.Go(func() error {
		return p.Encoder.EncodeFrames(ctx, frames, tracks, out, opts)
	})

	err := g.Wait()
	// остатки кадров, которые не дошли до кодировщика
	for r := range painted {
		system.PutImage(r.img)
	}
	return err
}

// deliverInOrder reorders painted frames by index and forwards them.
// sent is called after each frame is handed over.
func deliverInOrder(ctx context.Context, in <-chan rendered, out chan<- *image.RGBA, sent func(int)) error {
	pending := make(map[int]*image.RGBA)
	next := 0
	defer func() {
		for _, img := range pending {
			system.PutImage(img)
		}
	}()

	for r := range in {
		pending[r.index] = r.img
		for {
			img, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			select {
			case out <- img:
			case <-ctx.Done():
				system.PutImage(img)
				return ctx.Err()
			}
			if sent != nil {
				sent(next)
			}
			next++
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("кадр %d: %w", next, ErrSegmentMissing)
	}
	return nil
}
