package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/config"
	"github.com/ivlev/scenevideo/internal/director"
	"github.com/ivlev/scenevideo/internal/engine"
	"github.com/ivlev/scenevideo/internal/logging"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/system"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	verbose    bool

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scenevideo",
	Short: "Вертикальные видео из сцен: картинка, текст, озвучка",
	Long: `scenevideo собирает видео 1080x1920 из списка сцен (props JSON/YAML).

Examples:
  # Рендер в файл
  scenevideo render --props-file input/story.json -o out/story.mp4

  # Один кадр для превью
  scenevideo still --props-file input/story.json --frame 45

  # HTTP API
  scenevideo serve --port 3001`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		cfg.BuildVersion = version
		if verbose {
			cfg.Verbose = true
		}
		log = logging.New(cfg.Env, cfg.LogLevel)
		system.InitResourceLimits(log)
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Отрендерить видео",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRenderFlags(cmd); err != nil {
			return err
		}
		p, err := readProps(cmd)
		if err != nil {
			return err
		}
		project, err := engine.NewProject(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		output, _ := cmd.Flags().GetString("output")
		codec, _ := cmd.Flags().GetString("codec")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		res := project.RenderVideo(ctx, p, engine.Options{
			OutputPath:  output,
			Codec:       codec,
			Concurrency: concurrency,
			Verbose:     cfg.Verbose,
		})
		if !res.Success {
			return fmt.Errorf("[-] Ошибка рендера: %s", res.Error)
		}
		fmt.Printf("[+++] Успех! Результат: %s (%d кадров, %.2fs)\n", res.OutputPath, res.Frames, res.Duration.Seconds())
		return nil
	},
}

var stillCmd = &cobra.Command{
	Use:   "still",
	Short: "Отрендерить один кадр в PNG/JPEG",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRenderFlags(cmd); err != nil {
			return err
		}
		p, err := readProps(cmd)
		if err != nil {
			return err
		}
		project, err := engine.NewProject(cfg, log)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		frame, _ := cmd.Flags().GetInt("frame")
		quality, _ := cmd.Flags().GetInt("jpeg-quality")
		res := project.RenderStill(cmd.Context(), p, frame, engine.Options{OutputPath: output, JPEGQuality: quality})
		if !res.Success {
			return fmt.Errorf("[-] Ошибка рендера: %s", res.Error)
		}
		fmt.Printf("[+++] Кадр %d сохранен: %s\n", frame, res.OutputPath)
		return nil
	},
}

var animationsCmd = &cobra.Command{
	Use:   "animations",
	Short: "Список анимаций с параметрами",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		descs := animation.Default().Describe(animation.Category(category))
		if len(descs) == 0 {
			return fmt.Errorf("неизвестная категория %q (доступны: %s)", category, categoryList())
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(descs)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Сохранить план таймлайна (кадры, чанки, анимации) в YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if latest, _ := cmd.Flags().GetBool("latest"); latest {
			return showLatestPlan()
		}
		p, err := readProps(cmd)
		if err != nil {
			return err
		}
		if err := props.CheckRenderable(p); err != nil {
			return err
		}
		props.ApplyDefaults(p)

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = director.GeneratePlanPath("plans")
		}
		plan := director.NewDirector(animation.Default(), cfg.FPS).GeneratePlan(p)
		if err := director.WritePlan(plan, output); err != nil {
			return err
		}
		fmt.Printf("[+++] План сохранен: %s (%d кадров)\n", output, plan.TotalFrames)
		return nil
	},
}

// showLatestPlan prints a summary of the newest plan in plans/.
func showLatestPlan() error {
	path, err := director.FindLatestPlan("plans")
	if err != nil {
		return err
	}
	plan, err := director.ReadPlan(path)
	if err != nil {
		return err
	}
	fmt.Printf("[*] План: %s | %d FPS | %d кадров (%.2fs)\n", path, plan.FPS, plan.TotalFrames, float64(plan.TotalFrames)/float64(max(plan.FPS, 1)))
	for _, s := range plan.Scenes {
		fmt.Printf("  #%d  @%d  %d кадров  %s/%s  чанков: %d\n", s.Index, s.Offset, s.Frames, s.TextIn, s.TextOut, len(s.Chunks))
	}
	return nil
}

func categoryList() string {
	names := make([]string, len(animation.Categories))
	for i, c := range animation.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// applyRenderFlags folds the output flags into the loaded config.
func applyRenderFlags(cmd *cobra.Command) error {
	if cmd.Flags().Changed("preset") {
		preset, _ := cmd.Flags().GetString("preset")
		if err := cfg.ApplyPreset(preset); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("quality") {
		cfg.Quality, _ = cmd.Flags().GetInt("quality")
	}
	if cmd.Flags().Changed("stats") {
		cfg.ShowStats, _ = cmd.Flags().GetBool("stats")
	}
	return nil
}

// readProps reads --props, then --props-file, then the newest file in input/.
func readProps(cmd *cobra.Command) (*props.VideoProps, error) {
	if inline, _ := cmd.Flags().GetString("props"); inline != "" {
		return props.Parse([]byte(inline), props.FormatJSON)
	}
	path, _ := cmd.Flags().GetString("props-file")
	if path == "" {
		latest, err := system.FindLatestFile("input", ".json", ".yaml", ".yml")
		if err != nil {
			return nil, errors.New("[-] Ошибка: укажите --props-file или --props, либо положите props в input/")
		}
		path = latest
		fmt.Printf("[*] Выбран файл: %s\n", path)
	}
	return props.Load(path)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Путь к YAML конфигу")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")

	for _, c := range []*cobra.Command{renderCmd, stillCmd, planCmd} {
		c.Flags().String("props-file", "", "Путь к props (JSON или YAML; по умолчанию: самый свежий файл в input/)")
		c.Flags().String("props", "", "Props JSON строкой")
		c.Flags().StringP("output", "o", "", "Путь к результату (если пусто, генерируется автоматически)")
	}
	for _, c := range []*cobra.Command{renderCmd, stillCmd} {
		c.Flags().String("preset", "", "Пресет формата: 9:16, 9:16-hd, 16:9, 4:5")
		c.Flags().Bool("stats", true, "Показать PERFORMANCE REPORT и писать benchmark.log")
	}

	renderCmd.Flags().String("codec", "", "Кодек: h264, h265, vp8, vp9, prores (по умолчанию из конфига)")
	renderCmd.Flags().Int("concurrency", 0, "Потоки рендера (0 - по числу ядер)")
	renderCmd.Flags().Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")

	stillCmd.Flags().Int("frame", 0, "Номер кадра (за пределами таймлайна прижимается к краю)")
	stillCmd.Flags().Int("jpeg-quality", 0, "Качество JPEG 1-100 (0 - из конфига)")

	planCmd.Flags().Bool("latest", false, "Показать последний сохраненный план из plans/")

	animationsCmd.Flags().String("category", "", fmt.Sprintf("Категория: %s", categoryList()))

	rootCmd.AddCommand(renderCmd, stillCmd, serveCmd, animationsCmd, planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
