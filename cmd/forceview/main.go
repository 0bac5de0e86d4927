package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/forceview/internal/app"
	"github.com/san-kum/forceview/internal/config"
	"github.com/san-kum/forceview/internal/export"
	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/layout"
	"github.com/san-kum/forceview/internal/tui"
	"github.com/san-kum/forceview/internal/video"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string
	dataPath   string

	fps       int
	format    string
	renderOut string
	loops     int

	simOut  string
	cofOut  string
	jsonOut string

	teeth    int
	sensors  int
	duration float64
	rate     float64
	seed     int64

	width  int
	height int
	stroke string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "forceview",
		Short:         "synchronized bite force visualization",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPlay,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.StringVar(&dataPath, "data", "", "force recording CSV (simulated data when empty)")
	pf.IntVar(&fps, "fps", config.DefaultFPS, "timeline frames per second")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "interactive terminal session",
		RunE:  runPlay,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render the whole recording to video without waiting between frames",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&format, "format", config.FormatFFMPEG, "output format (ffmpeg|gif|png)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output path (generated when empty)")
	renderCmd.Flags().IntVar(&loops, "loops", 1, "times to play the recording")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "write simulated sensor data as CSV",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVarP(&simOut, "out", "o", "forces.csv", "output CSV path")
	simulateCmd.Flags().IntVar(&teeth, "teeth", config.DefaultTeeth, "number of teeth")
	simulateCmd.Flags().IntVar(&sensors, "sensors", config.DefaultSensors, "sensors per tooth")
	simulateCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	simulateCmd.Flags().Float64Var(&rate, "rate", config.DefaultRate, "samples per second")
	simulateCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "per-tooth force summary",
		RunE:  runInfo,
	}

	cofCmd := &cobra.Command{
		Use:   "cof",
		Short: "export the center-of-force trajectory as SVG",
		RunE:  runCOF,
	}
	cofCmd.Flags().StringVarP(&cofOut, "out", "o", "cof.svg", "output SVG path")
	cofCmd.Flags().IntVar(&width, "width", 600, "drawing width")
	cofCmd.Flags().IntVar(&height, "height", 600, "drawing height")
	cofCmd.Flags().StringVar(&stroke, "stroke", "#cc2200", "path color")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "export per-tooth force series to JSON",
		RunE:  runExportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "-", "output path (- for stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCANVAS\tFPS\tFORMAT")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\n", name, cfg.Canvas.Width, cfg.Canvas.Height, cfg.FPS, cfg.Export.Format)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(playCmd, renderCmd, simulateCmd, infoCmd, cofCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Source = config.SourceCSV
		cfg.Data.Path = dataPath
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	switch cmd.Name() {
	case "render":
		if flags.Changed("format") {
			cfg.Export.Format = format
		}
		if flags.Changed("out") {
			cfg.Export.Path = renderOut
		}
	case "simulate":
		cfg.Data.Source = config.SourceSimulate
		if flags.Changed("teeth") {
			cfg.Data.Teeth = teeth
		}
		if flags.Changed("sensors") {
			cfg.Data.Sensors = sensors
		}
		if flags.Changed("time") {
			cfg.Data.Duration = duration
		}
		if flags.Changed("rate") {
			cfg.Data.Rate = rate
		}
		if flags.Changed("seed") {
			cfg.Data.Seed = seed
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	w, closeFn := fallback, func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, func() { f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// loadSource reads the configured recording and derives its center of force
// from the grid layout.
func loadSource(cfg *config.Config) (*forcedata.Matrix, error) {
	m, err := app.LoadData(cfg.Data)
	if err != nil {
		return nil, err
	}
	cells := layout.ArchCells(m.ToothIDs(), layout.GridArchWidth, layout.GridArchDepth)
	m.ComputeCenterOfForce(layout.Centers(cells))
	return m, nil
}

func openSession(cmd *cobra.Command, logSink io.Writer) (*app.Session, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := newLogger(logSink)
	if err != nil {
		return nil, nil, nil, err
	}
	src, err := app.LoadData(cfg.Data)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	s, err := app.New(cfg, src, logger)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return s, logger, closeLog, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPlay(cmd *cobra.Command, args []string) error {
	// the terminal belongs to the preview; logs go to --log-file or nowhere
	s, logger, closeLog, err := openSession(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	defer s.Close()

	if s.Config().Export.Enabled {
		sink, path, err := video.NewSink(s.Config().Export.Format, s.Config().Export.Path, logger)
		if err != nil {
			return err
		}
		if err := s.StartExport(sink, path); err != nil {
			logger.Warn("continuing without export", "err", err)
		}
	}

	ctx, stop := signalContext()
	defer stop()
	s.Timeline().Play()
	if err := tui.Run(ctx, s, logger); err != nil {
		return err
	}
	return s.Close()
}

func runRender(cmd *cobra.Command, args []string) error {
	s, logger, closeLog, err := openSession(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	defer s.Close()

	cfg := s.Config().Export
	sink, path, err := video.NewSink(cfg.Format, cfg.Path, logger)
	if err != nil {
		return err
	}

	total := max(1, loops) * s.Timeline().Len()
	progress := tui.NewProgress(os.Stderr, total, 10)
	s.Timeline().AddObserver(progress)

	ctx, stop := signalContext()
	defer stop()

	progress.Start()
	err = s.Export(ctx, sink, path, loops)
	progress.Stop()
	if errors.Is(err, context.Canceled) {
		logger.Warn("render interrupted", "frames", progress.Frames(), "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d frames to %s\n", progress.Frames(), path)
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := app.LoadData(cfg.Data)
	if err != nil {
		return err
	}
	if err := forcedata.SaveCSV(simOut, m); err != nil {
		return err
	}
	fmt.Printf("wrote %d teeth x %d samples to %s\n", len(m.ToothIDs()), len(m.Timestamps()), simOut)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadSource(cfg)
	if err != nil {
		return err
	}

	times := m.Timestamps()
	fmt.Printf("source: %s\n", sourceName(cfg))
	fmt.Printf("teeth: %d  samples: %d  span: %.2fs - %.2fs\n", len(m.ToothIDs()), len(times), times[0], times[len(times)-1])
	fmt.Printf("peak tooth force: %.1fN\n\n", m.MaxForce())

	stats := forcedata.Summarize(m)
	rhythm := forcedata.BiteRhythm(m)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOTH\tSENSORS\tPEAK\tMEAN\tPEAK@\tRHYTHM")
	strongest := stats[0]
	for i, st := range stats {
		fmt.Fprintf(w, "%d\t%d\t%.1fN\t%.1fN\t%.2fs\t%.2fHz\n",
			st.Tooth, len(m.SensorIDs(st.Tooth)), st.Peak, st.Mean, st.PeakTime, rhythm[i].Frequency)
		if st.Peak > strongest.Peak {
			strongest = st
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, series := m.ForceSeries(strongest.Tooth)
	if len(series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("tooth %d total force (N)", strongest.Tooth)),
		))
	}
	return nil
}

func runCOF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadSource(cfg)
	if err != nil {
		return err
	}
	f, err := os.Create(cofOut)
	if err != nil {
		return err
	}
	if err := export.WriteTrajectorySVG(f, m, width, height, stroke); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d center-of-force points to %s\n", len(m.Trajectory()), cofOut)
	return nil
}

func runExportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadSource(cfg)
	if err != nil {
		return err
	}
	return export.ExportJSON(jsonOut, m)
}

func sourceName(cfg *config.Config) string {
	if cfg.Data.Source == config.SourceCSV {
		return cfg.Data.Path
	}
	return fmt.Sprintf("simulated (%gs at %gHz, seed %d)", cfg.Data.Duration, cfg.Data.Rate, cfg.Data.Seed)
}
