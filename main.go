package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/game"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/timeutil"
)

func main() {
	presetPath := flag.String("preset", "", "JSON preset overriding the stock engine configuration")
	audioPath := flag.String("audio", "", "audio file (wav, mp3, flac) to play on start")
	verbose := flag.Bool("verbose", false, "log cascade, transition and beat details")
	headless := flag.Duration("headless", 0, "run the engine without a window for this long, then print every section's snapshot")
	flag.Parse()

	monitoring.SetVerbose(*verbose)

	engine := config.Default()
	if *presetPath != "" {
		p, err := config.LoadPresetFile(*presetPath)
		if err != nil {
			log.Fatalf("failed to load preset: %v", err)
		}
		if err := engine.Apply(p); err != nil {
			log.Fatalf("failed to apply preset: %v", err)
		}
		monitoring.Logf("preset %s loaded", *presetPath)
	}

	if *headless > 0 {
		runHeadless(engine, *headless)
		return
	}

	g := game.New(engine, timeutil.RealClock{})
	defer g.Close()
	if *audioPath != "" {
		if err := g.LoadAndPlay(*audioPath); err != nil {
			monitoring.Logf("failed to play %s: %v", *audioPath, err)
		}
	}

	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowTitle("VIB34D - </>: section, O: audio, P: preset, R: reset, Space: pause, Esc/Q: quit")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		panic(err)
	}
}

// runHeadless drives the authority on its own frame loop, fires a hover so
// the cascade has something to smooth, and prints the content snapshots.
func runHeadless(engine *config.Engine, d time.Duration) {
	clock := timeutil.RealClock{}
	web := cascade.New(clock, engine.Triggers, cascade.WithDamping(engine.Damping))
	auth := authority.New(engine.AuthorityConfig(), web, clock,
		authority.WithObserver(authority.ObserverFunc(func(section string, layer param.Layer, snap param.Snapshot) {
			monitoring.Debugf("derive %s/%s geometry=%d density=%.3f morph=%.3f", section, layer, snap.Geometry, snap.Density, snap.Morph)
		})))
	defer auth.Close()

	auth.Start()
	auth.TriggerParameterCascade(config.TriggerCardHover, cascade.Context{})
	time.Sleep(d)
	auth.Stop()

	for _, sec := range config.SectionOrder {
		out, err := json.Marshal(auth.DeriveParameters(sec, param.Content))
		if err != nil {
			log.Fatalf("failed to encode %s: %v", sec, err)
		}
		fmt.Printf("%-10s %s\n", sec, out)
	}
}
