package system

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Расширения файлов, которые принимает CLI.
var (
	PropsExtensions = []string{".json", ".yaml", ".yml"}
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png"}
)

// InitResourceLimits поднимает лимит открытых файлов: параллельный рендер
// держит много декодированных ассетов и пайпов ffmpeg.
func InitResourceLimits(log logrus.FieldLogger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("could not read open file limit")
		return
	}

	want := uint64(2048)
	if want > uint64(rLimit.Max) {
		want = uint64(rLimit.Max)
	}
	if uint64(rLimit.Cur) >= want {
		return
	}
	rLimit.Cur = want

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("could not raise open file limit")
		return
	}
	log.WithField("limit", rLimit.Cur).Debug("open file limit raised")
}

// FindLatestFile возвращает самый свежий файл в dir с одним из расширений.
func FindLatestFile(dir string, extensions ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	type candidate struct {
		path string
		mod  int64
	}
	var found []candidate
	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, f.Name()), info.ModTime().UnixNano()})
	}

	if len(found) == 0 {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(extensions, "/"), dir)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod > found[j].mod })
	return found[0].path, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// ParseProbeDuration извлекает длительность в секундах из JSON ffprobe.
// Длительность контейнера приоритетнее длительности аудиопотока.
func ParseProbeDuration(probe string) (float64, error) {
	var res probeResult
	if err := json.Unmarshal([]byte(probe), &res); err != nil {
		return 0, errors.WithStack(err)
	}

	candidates := []string{res.Format.Duration}
	for _, s := range res.Streams {
		if s.CodecType == "audio" {
			candidates = append(candidates, s.Duration)
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err == nil && d > 0 {
			return d, nil
		}
	}
	return 0, errors.New("no duration in probe output")
}

// GetAudioDuration возвращает длительность локального файла или URL.
func GetAudioDuration(path string) (float64, error) {
	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, errors.Wrapf(err, "ffprobe %s", path)
	}
	return ParseProbeDuration(probe)
}

var (
	encodersOnce sync.Once
	encodersList string
)

func availableEncoders() string {
	encodersOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err == nil {
			encodersList = string(out)
		}
	})
	return encodersList
}

// GetBestH264Encoder выбирает аппаратный кодировщик, если ffmpeg его знает.
// Приоритеты: VideoToolbox (macOS), NVENC (NVIDIA), затем libx264.
func GetBestH264Encoder() string {
	return pickEncoder(availableEncoders(), []string{"h264_videotoolbox", "h264_nvenc"}, "libx264")
}

// EncoderFor сопоставляет кодек из CLI с кодировщиком ffmpeg.
func EncoderFor(codec string) (string, error) {
	switch strings.ToLower(codec) {
	case "", "h264":
		return GetBestH264Encoder(), nil
	case "h265":
		return pickEncoder(availableEncoders(), []string{"hevc_videotoolbox", "hevc_nvenc"}, "libx265"), nil
	case "vp8":
		return "libvpx", nil
	case "vp9":
		return "libvpx-vp9", nil
	case "prores":
		return "prores_ks", nil
	}
	return "", fmt.Errorf("unsupported codec %q (h264, h265, vp8, vp9, prores)", codec)
}

func pickEncoder(encoders string, preferred []string, fallback string) string {
	for _, name := range preferred {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return fallback
}

// HostStats снимок ресурсов машины для отчета о производительности.
type HostStats struct {
	LogicalCPUs     int     `json:"logicalCpus"`
	TotalMemory     uint64  `json:"totalMemory"`
	AvailableMemory uint64  `json:"availableMemory"`
	MemoryUsed      float64 `json:"memoryUsedPercent"`
}

// ReadHostStats читает число ядер и память через gopsutil.
func ReadHostStats() (HostStats, error) {
	var hs HostStats
	n, err := cpu.Counts(true)
	if err != nil {
		return hs, errors.Wrap(err, "cpu counts")
	}
	hs.LogicalCPUs = n

	vm, err := mem.VirtualMemory()
	if err != nil {
		return hs, errors.Wrap(err, "virtual memory")
	}
	hs.TotalMemory = vm.Total
	hs.AvailableMemory = vm.Available
	hs.MemoryUsed = vm.UsedPercent
	return hs, nil
}

func (h HostStats) String() string {
	const gb = 1 << 30
	return fmt.Sprintf("%d CPU, RAM %.1f/%.1f GB (%.0f%% used)",
		h.LogicalCPUs, float64(h.TotalMemory-h.AvailableMemory)/gb, float64(h.TotalMemory)/gb, h.MemoryUsed)
}

// DefaultWorkers is the raster pool size: one per logical CPU, at least one.
func DefaultWorkers() int {
	if hs, err := ReadHostStats(); err == nil && hs.LogicalCPUs > 0 {
		return hs.LogicalCPUs
	}
	return 1
}
