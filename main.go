// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"spectrum/cmd"
	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
	"spectrum/pkg/build"
)

// monitorLogFile receives log output while the monitor owns the terminal.
const monitorLogFile = "spectrum-monitor.log"

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and configuration
//   - Execute one-off commands (analyze, list, devices)
//
// 2. Concurrent Phase (Hot Path):
//   - Build the analyzer and its transports
//   - Start the analysis runner and the input stream
//   - Start recording if enabled
//   - Run the monitor UI or wait for a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop capture first so the analyzer stops receiving samples
//   - Stop recording and save the file
//   - Stop the runner, then close publishers and transports
func main() {
	if err := run(); err != nil {
		applog.Errorf("%v", err)
		_ = applog.Sync()
		os.Exit(1)
	}
	_ = applog.Sync()
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		return err
	}

	// One thread for the audio callback, one for the runner, transports and UI.
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs()
	if err != nil {
		return err
	}
	// --help and --version print and exit without loading a configuration.
	if opts.Config == nil {
		return nil
	}
	cfg := opts.Config
	cmd.ConfigureLogging(cfg)

	// Files are decoded directly; no audio device is involved.
	if opts.Command == cmd.CommandAnalyze {
		return cmd.AnalyzeFile(cfg, opts.File, os.Stdout)
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	switch opts.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)
	case cmd.CommandDevices:
		return browseDevices()
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	return capture(cfg, opts)
}

func browseDevices() error {
	sel, err := tui.StartDeviceListUI()
	if err != nil {
		return err
	}
	if sel == nil {
		return nil
	}
	fmt.Printf("Selected [%d] %s at %.0f Hz\n", sel.DeviceID, sel.DeviceName, sel.SampleRate)
	fmt.Printf("Run: %s --device %d --sample-rate %.0f\n", build.GetBuildFlags().Name, sel.DeviceID, sel.SampleRate)
	return nil
}

// capture runs live analysis until a termination signal arrives or, in
// monitor mode, until the user quits the monitor.
func capture(cfg *config.Config, opts *cmd.Options) error {
	settings, err := analysis.SettingsFromConfig(cfg.Analysis, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	analyzer, err := analysis.New(settings)
	if err != nil {
		return err
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				applog.Errorf("Error during shutdown: %v", err)
			}
		}
	}()

	var transports []transport.Transport
	if cfg.Transport.LogFrames {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return err
		}
		transports = append(transports, ws)
	}
	for _, t := range transports {
		closers = append(closers, t)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		closers = append(closers, sender)
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, analyzer)
		if err != nil {
			return err
		}
		publisher.Start()
		closers = append(closers, publisher)
	}

	runner, err := analysis.NewRunner(analyzer, settings.TickInterval, transports...)
	if err != nil {
		return err
	}
	runner.Start()
	closers = append(closers, closerFunc(func() error {
		runner.Stop()
		return nil
	}))

	engine, err := audio.NewEngine(cfg, analyzer)
	if err != nil {
		return err
	}

	// CRITICAL: Start of real-time audio processing. PortAudio begins calling
	// the callback, marking the start of the hot path.
	if err := engine.StartInputStream(); err != nil {
		return err
	}
	// Closing the engine stops recording and capture before the runner stops.
	var recorded string
	closers = append(closers, closerFunc(func() error {
		if err := engine.Close(); err != nil {
			return err
		}
		if recorded != "" {
			fmt.Printf("\nRecording saved to: %s\n", recorded)
		}
		return nil
	}))

	if opts.Record {
		path, err := recordingPath(cfg, opts.OutputFile)
		if err != nil {
			return err
		}
		if err := engine.StartRecording(path); err != nil {
			return err
		}
		recorded = path
	}

	if opts.Command == cmd.CommandMonitor {
		return monitor(cfg, analyzer, settings)
	}

	applog.Infof("Capturing %d channels at %.0f Hz, %d bands (%s). Press Ctrl+C to stop.",
		cfg.Audio.InputChannels, cfg.Audio.SampleRate, len(analyzer.Snapshot().Bands), settings.Kind)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	// Block until termination signal is received.
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	applog.Infof("Shutting down")
	return nil
}

// monitor draws the spectrum until the user quits. The UI owns the terminal,
// so logs go to a file in debug mode and are dropped otherwise.
func monitor(cfg *config.Config, analyzer *analysis.Analyzer, settings analysis.Settings) error {
	out := io.Discard
	if cfg.Debug {
		f, err := os.Create(monitorLogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	applog.SetOutput(out)
	defer applog.SetOutput(os.Stderr)

	title := fmt.Sprintf("%s %s  %s, %.0f Hz", build.GetBuildFlags().Name, build.GetBuildFlags().Version, settings.Kind, settings.SampleRate)
	return tui.RunMonitor(analyzer, min(tui.DefaultMonitorInterval, max(settings.TickInterval, time.Millisecond)), title)
}

func recordingPath(cfg *config.Config, output string) (string, error) {
	if output != "" {
		return output, nil
	}
	if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recording directory: %w", err)
	}
	return audio.RecordingPath(cfg.Recording.OutputDir, time.Now()), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
