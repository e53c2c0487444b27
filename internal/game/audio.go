package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/telemetry"
)

// ErrUnsupportedAudio is returned for files that are not wav, mp3 or flac.
var ErrUnsupportedAudio = errors.New("unsupported audio file type")

func (g *Game) togglePause() {
	if g.ctrl == nil {
		return
	}
	speaker.Lock()
	g.paused = !g.paused
	g.ctrl.Paused = g.paused
	speaker.Unlock()
}

func (g *Game) stopCurrent() {
	if !g.initDone {
		return
	}
	speaker.Lock()
	speaker.Clear()
	speaker.Unlock()
	g.closeStream()
}

func (g *Game) closeStream() {
	if g.streamer != nil {
		_ = g.streamer.Close()
		g.streamer = nil
	}
	if g.currentFile != nil {
		_ = g.currentFile.Close()
		g.currentFile = nil
	}
	g.tap, g.ctrl = nil, nil
}

func (g *Game) openAndPlayFileDialog() error {
	filename, err := zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: []string{"*.wav", "*.mp3", "*.flac"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}
	return g.LoadAndPlay(filename)
}

func (g *Game) openPresetDialog() error {
	filename, err := zenity.SelectFile(
		zenity.Title("Open Preset"),
		zenity.FileFilters{{
			Name:     "Preset",
			Patterns: []string{"*.json"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}

	p, err := config.LoadPresetFile(filename)
	if err != nil {
		return err
	}
	if err := g.ApplyPreset(p); err != nil {
		return err
	}
	monitoring.Logf("game: preset %s applied", filepath.Base(filename))
	return nil
}

func decode(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedAudio, ext)
	}
}

// LoadAndPlay replaces the playing track with the file at path. Its samples
// are tapped for the telemetry port on their way to the speaker.
func (g *Game) LoadAndPlay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	streamer, format, err := decode(path, f)
	if err != nil {
		_ = f.Close()
		return err
	}

	// streamer -> tap -> ctrl
	tap := telemetry.NewTap(streamer, config.VisualRingSize)
	ctrl := &beep.Ctrl{Streamer: tap}

	bufferSize := format.SampleRate.N(time.Second / 20)
	switch {
	case !g.initDone:
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
		g.initDone = true
	case g.format.SampleRate != format.SampleRate:
		speaker.Lock()
		speaker.Clear()
		speaker.Unlock()
		g.closeStream()
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
	default:
		g.stopCurrent()
	}

	g.currentFile = f
	g.streamer = streamer
	g.format = format
	g.ctrl = ctrl
	g.tap = tap
	g.paused = false
	g.analyzer.Reset()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		monitoring.Logf("game: %s finished", filepath.Base(path))
	})))
	monitoring.Logf("game: playing %s", filepath.Base(path))
	return nil
}

// position returns how far into the track playback is.
func (g *Game) position() (time.Duration, time.Duration) {
	if g.streamer == nil {
		return 0, 0
	}
	speaker.Lock()
	pos, total := g.streamer.Position(), g.streamer.Len()
	speaker.Unlock()
	return g.format.SampleRate.D(pos), g.format.SampleRate.D(total)
}
