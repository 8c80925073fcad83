package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	svg "github.com/ajstarks/svgo"
	"github.com/flanksource/commons/logger"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inkframe/inkframe"
	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/document"
	"github.com/inkframe/inkframe/notify"
	"github.com/inkframe/inkframe/scene"
)

// Build information (set by goreleaser)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var logFlags = logger.Flags{
	Level:       "info",
	LogToStderr: true,
}

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindLoggerFlags(flags *pflag.FlagSet) {
	flags.CountVarP(&logFlags.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&logFlags.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&logFlags.JsonLogs, "json-logs", false, "Print logs in json format to stderr")
	flags.BoolVar(&logFlags.ReportCaller, "report-caller", false, "Report log caller info")
	flags.BoolVar(&logFlags.LogToStderr, "log-to-stderr", true, "Log to stderr instead of stdout")
}

func newRootCommand() *cobra.Command {
	var configFile string
	var options inkframe.ExportOptions

	rootCmd := &cobra.Command{
		Use:   "inkframe",
		Short: "Export SVG diagrams to standalone vector, raster, document and clipboard artifacts",
		Long: `Inkframe exports SVG diagrams into self-contained artifacts that look the
way the diagram looks on screen: stylesheet rules are baked into the
elements, text layout is pinned, and the output is cropped to the drawn
content with a proportional margin.

For convenience you can pass SVG files to the root command directly, or
use the 'export' subcommand explicitly.`,
		Example: `  inkframe diagram.svg
  inkframe export --png --device compact diagram.svg
  inkframe export --pdf --output reports/ *.svg
  inkframe sample | inkframe --svg -`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runExport(cmd, configFile, &options, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	bindLoggerFlags(rootCmd.PersistentFlags())
	inkframe.BindPFlags(rootCmd.Flags(), &options)

	rootCmd.AddCommand(newExportCommand(&configFile))
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newSampleCommand(&configFile))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newExportCommand(configFile *string) *cobra.Command {
	var options inkframe.ExportOptions

	cmd := &cobra.Command{
		Use:   "export [flags] <diagram1.svg> [diagram2.svg...]",
		Short: "Export one or more SVG diagrams",
		Long: `Export SVG diagrams using the configured pipeline. Pass '-' to read a
single diagram from stdin.`,
		Example: `  inkframe export diagram.svg
  inkframe export --jpg --transparent diagram.svg
  inkframe export --png --clipboard diagram.svg
  inkframe export --format document --output out/ a.svg b.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, *configFile, &options, args)
		},
	}

	inkframe.BindPFlags(cmd.Flags(), &options)
	return cmd
}

func runExport(cmd *cobra.Command, configFile string, options *inkframe.ExportOptions, paths []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if options.Output != "" {
		cfg.OutputDir = options.Output
	}

	format, err := options.ResolveFormat()
	if err != nil {
		return err
	}
	device, err := options.DeviceClass()
	if err != nil {
		return err
	}

	exporter := inkframe.New(cfg, inkframe.WithNotifier(notify.NewConsole()))
	defer exporter.Documents().Close()

	for _, path := range paths {
		var data []byte
		if path == "-" {
			data, err = os.ReadFile("/dev/stdin")
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		sc, err := scene.ParseBytes(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if _, err := exporter.Export(cmd.Context(), inkframe.Request{
			Scene:     sc,
			Format:    format,
			Device:    device,
			Title:     options.Title,
			Clipboard: options.Clipboard,
		}); err != nil {
			return fmt.Errorf("failed to export %s: %w", path, err)
		}
	}
	return nil
}

// loadConfig resolves the effective configuration. Without a config file the
// theme follows the terminal background so exports match what the user sees.
func loadConfig(path string) (inkframe.Config, error) {
	if path != "" {
		return inkframe.LoadConfig(path)
	}
	cfg := inkframe.DefaultConfig()
	if termenv.HasDarkBackground() {
		cfg.Theme = api.Theme{
			Background: "#1e1e1e",
			TextColor:  "#d4d4d4",
			Dark:       true,
		}
	}
	return cfg, nil
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported export formats and document generators",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%-32s %-6s %-16s %s\n", "FORMAT", "EXT", "MIME", "CLIPBOARD")
			for _, f := range api.AllFormats() {
				clip := "no"
				if f.SupportsClipboard() {
					clip = "yes"
				}
				fmt.Printf("%-32s %-6s %-16s %s\n", f, f.Extension(), f.MIME(), clip)
			}

			manager := document.NewManager(document.DefaultGenerators(false))
			available := map[string]bool{}
			for _, name := range manager.Available() {
				available[name] = true
			}
			fmt.Printf("\n%-16s %s\n", "GENERATOR", "AVAILABLE")
			for _, name := range manager.Names() {
				state := "no"
				if available[name] {
					state = "yes"
				}
				fmt.Printf("%-16s %s\n", name, state)
			}
		},
	}
}

func newSampleCommand(configFile *string) *cobra.Command {
	var export bool
	var options inkframe.ExportOptions

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a demo diagram",
		Long: `Generate a small demo diagram on stdout, or export it directly with
--export to exercise the whole pipeline without an input file.`,
		Example: `  inkframe sample > demo.svg
  inkframe sample --export --png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := sampleDiagram()
			if !export {
				_, err := os.Stdout.Write(data)
				return err
			}

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if options.Output != "" {
				cfg.OutputDir = options.Output
			}
			format, err := options.ResolveFormat()
			if err != nil {
				return err
			}
			device, err := options.DeviceClass()
			if err != nil {
				return err
			}

			sc, err := scene.ParseBytes(data)
			if err != nil {
				return err
			}

			exporter := inkframe.New(cfg, inkframe.WithNotifier(notify.NewConsole()))
			defer exporter.Documents().Close()
			_, err = exporter.Export(cmd.Context(), inkframe.Request{
				Scene:     sc,
				Format:    format,
				Device:    device,
				Title:     options.Title,
				Clipboard: options.Clipboard,
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "Export the demo diagram instead of printing it")
	inkframe.BindPFlags(cmd.Flags(), &options)
	return cmd
}

// sampleDiagram draws a three-node flow with a stylesheet, so the baking and
// cropping stages have something real to work on.
func sampleDiagram() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(640, 240, `viewBox="0 0 640 240"`)
	canvas.Title("Sample Flow")
	canvas.Style("text/css", `
		.node { fill: #eef2ff; stroke: #4338ca; stroke-width: 2; }
		.edge { stroke: #64748b; stroke-width: 1.5; }
		.label { font-family: sans-serif; font-size: 14px; fill: #111827; }
	`)
	canvas.Roundrect(40, 80, 140, 60, 8, 8, `class="node"`)
	canvas.Roundrect(250, 80, 140, 60, 8, 8, `class="node"`)
	canvas.Roundrect(460, 80, 140, 60, 8, 8, `class="node"`)
	canvas.Line(180, 110, 250, 110, `class="edge"`)
	canvas.Line(390, 110, 460, 110, `class="edge"`)
	canvas.Text(110, 115, "ingest", `class="label"`, `text-anchor="middle"`)
	canvas.Text(320, 115, "transform", `class="label"`, `text-anchor="middle"`)
	canvas.Text(530, 115, "deliver", `class="label"`, `text-anchor="middle"`)
	canvas.End()
	return buf.Bytes()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("inkframe %s (commit: %s, built: %s, go: %s)\n",
				version, commit, date, runtime.Version())
		},
	}
}
