// SPDX-License-Identifier: MIT
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
)

// AnalyzeFile runs the analyzer over the file at path in simulated real time:
// one tick per analysis interval of audio. It writes a header with the band
// centers, then one line per tick with the time in seconds and, per band, the
// smoothed value and the peak marker as "cur/peak". Bands without a visible
// marker report a peak of 0.
func AnalyzeFile(cfg *config.Config, path string, w io.Writer) error {
	src, err := audio.OpenFile(path)
	if err != nil {
		return err
	}
	defer src.Close()
	return analyzeSource(cfg, path, src, w)
}

// analyzeSource writes whatever it produced even when decoding or analysis
// fails part way through.
func analyzeSource(cfg *config.Config, name string, src audio.Source, w io.Writer) (err error) {
	rate := float64(src.SampleRate())
	settings, err := analysis.SettingsFromConfig(cfg.Analysis, rate)
	if err != nil {
		return err
	}
	analyzer, err := analysis.New(settings)
	if err != nil {
		return err
	}

	channels := src.Channels()
	layout := analysis.LayoutForChannels(channels)
	hop := max(1, int(settings.TickInterval.Seconds()*rate))
	buf := make([]float32, hop*channels)

	out := bufio.NewWriter(w)
	defer func() {
		if ferr := out.Flush(); err == nil {
			err = ferr
		}
	}()

	snap := analyzer.Snapshot()
	fmt.Fprintf(out, "# %s: %.0f Hz, %d channels, %s, %d bands\n", name, rate, channels, settings.Kind, len(snap.Bands))
	fmt.Fprint(out, "# time")
	for _, b := range snap.Bands {
		fmt.Fprintf(out, " %.1f", b.Center)
	}
	fmt.Fprintln(out)

	var (
		frames  int // Total frames read.
		pending int // Frames since the last tick.
		ticks   int
	)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			analyzer.Add(buf[:n], n, layout)
			frames += n / channels
			pending += n / channels
		}

		for pending >= hop {
			pending -= hop
			if err := analyzer.Tick(settings.TickInterval); err != nil {
				return err
			}
			ticks++
			snap = analyzer.SnapshotInto(snap.Bands)

			fmt.Fprintf(out, "%.3f", float64(frames-pending)/rate)
			for i := range snap.Bands {
				b := &snap.Bands[i]
				peak := 0.0
				if b.HasMarker() {
					peak = b.Peak
				}
				fmt.Fprintf(out, " %.3f/%.3f", b.Cur, peak)
			}
			fmt.Fprintln(out)
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("%s: after %d ticks: %w", name, ticks, rerr)
		}
	}

	applog.Infof("Analyze: %d ticks over %s of audio", ticks, time.Duration(float64(frames)/rate*float64(time.Second)))
	return nil
}
