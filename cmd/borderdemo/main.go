// Command borderdemo renders cut-corner borders described by a YAML scene
// file into PNG images, once or every time the scene changes.
//
// Usage:
//
//	borderdemo render scene.yaml --out out/ --dpr 2
//	borderdemo watch scene.yaml --out out/ --sheet out/sheet.png
//
// With --sheet every border is also composed onto one contact sheet, through
// the same texture path a GPU host would use.
//
// A .env file in the working directory is loaded first; BORDERDEMO_OUT and
// BORDERDEMO_DPR provide defaults for --out and --dpr.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/cutborder"
)

// Environment variables read after .env is loaded.
const (
	envOut = "BORDERDEMO_OUT"
	envDPR = "BORDERDEMO_DPR"
)

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose bool
	logFile string
	out     string
	dpr     float64
	sheet   string

	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "borderdemo",
		Short:        "Render cut-corner borders from scene files",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log every draw")
	flags.StringVar(&g.logFile, "log-file", "", "write logs to a rotated file instead of stderr")
	flags.StringVarP(&g.out, "out", "o", envString(envOut, "out"), "output directory")
	flags.Float64Var(&g.dpr, "dpr", envFloat(envDPR, 0), "device pixel ratio; 0 keeps the scene's")
	flags.StringVar(&g.sheet, "sheet", "", "also compose every border into one PNG at this path")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if g.dpr < 0 {
			return fmt.Errorf("--dpr must not be negative, got %v", g.dpr)
		}
		g.setupLogging(cmd.ErrOrStderr())
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		return g.closeLogging()
	}

	cmd.AddCommand(
		newRenderCmd(g),
		newWatchCmd(g),
	)
	return cmd
}

func (g *globalFlags) session() sessionConfig {
	return sessionConfig{out: g.out, dpr: g.dpr, sheet: g.sheet}
}

// setupLogging installs a text logger on cutborder (and through it on gg).
func (g *globalFlags) setupLogging(stderr io.Writer) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}

	w := stderr
	if g.logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   g.logFile,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		g.logCloser = lj
		w = lj
	}

	cutborder.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (g *globalFlags) closeLogging() error {
	cutborder.SetLogger(nil)
	if g.logCloser == nil {
		return nil
	}
	err := g.logCloser.Close()
	g.logCloser = nil
	return err
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
