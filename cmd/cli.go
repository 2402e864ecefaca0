// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

// Commands selected on the command line. The empty command runs live capture.
const (
	CommandLive    = ""
	CommandList    = "list"
	CommandDevices = "devices"
	CommandMonitor = "monitor"
	CommandAnalyze = "analyze"
)

// Options is the parsed command line: the loaded configuration with flag
// overrides applied, plus the command to run.
type Options struct {
	Config     *config.Config
	Command    string
	File       string // Input file for analyze.
	Record     bool
	OutputFile string // Empty picks a timestamped name in the recording directory.
}

// flagValues holds the raw persistent flags. Only flags set on the command
// line override the configuration.
type flagValues struct {
	configPath      string
	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	record          bool
	output          string
	verbose         bool
	bands           int
	fftSize         int
	window          string
	scaling         string
	kind            string
}

func ParseArgs() (*Options, error) {
	return parseArgs(os.Args[1:])
}

func parseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	flags := &flagValues{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time spectrum analyzer",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			options.Config = cfg
			options.Record = flags.record || cfg.Recording.Enabled
			options.OutputFile = flags.output
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandLive
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandList
			},
		},
		&cobra.Command{
			Use:   "devices",
			Short: "Browse audio devices interactively",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandDevices
			},
		},
		&cobra.Command{
			Use:   "monitor",
			Short: "Capture live and draw the spectrum in the terminal",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandMonitor
			},
		},
		&cobra.Command{
			Use:   "analyze <file>",
			Short: "Run the analyzer over a WAV, MP3 or FLAC file and print band values per tick",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				options.Command = CommandAnalyze
				options.File = args[0]
			},
		},
	)

	pf := rootCmd.PersistentFlags()

	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of interleaved input channels to capture")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record audio from the specified input device")
	pf.StringVarP(&flags.output, "output", "o", "",
		"Output file name. Default is recording-YYYYMMDD-HHMMSS.wav in the recording directory")

	// Analysis Configuration
	pf.IntVar(&flags.bands, "bands", config.DefaultBandCount, "Number of frequency bands")
	pf.IntVar(&flags.fftSize, "fft-size", config.DefaultFFTSize, "Transform size in samples")
	pf.StringVar(&flags.window, "window", config.DefaultWindow, "Window function (hann, blackman, kaiser, ...)")
	pf.StringVar(&flags.scaling, "scaling", config.DefaultScaling, "Frequency scale of the band layout (linear, log, mel, bark, ...)")
	pf.StringVar(&flags.kind, "kind", config.DefaultAnalysisKind, "Transform kind (fft, cqt, swift, analog)")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// apply copies every flag set on the command line into cfg and validates the
// result.
func (f *flagValues) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if changed("channels") {
		cfg.Audio.InputChannels = f.channels
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("bands") {
		cfg.Analysis.Bands.Count = f.bands
	}
	if changed("fft-size") {
		cfg.Analysis.Size = f.fftSize
	}
	if changed("window") {
		cfg.Analysis.Window.Shape = f.window
	}
	if changed("scaling") {
		cfg.Analysis.Bands.Scaling = f.scaling
	}
	if changed("kind") {
		cfg.Analysis.Kind = f.kind
	}
	if f.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// ConfigureLogging applies cfg's log level. Debug mode always logs at debug
// level; an unknown level name otherwise keeps the current level.
func ConfigureLogging(cfg *config.Config) {
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		level = applog.GetLevel()
		applog.Warnf("Unknown log level '%s', using %s", cfg.LogLevel, level)
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}
