// Command scottwisper is a hotkey-triggered dictation daemon: hold the
// hotkey to record, release to transcribe through the configured cloud
// endpoint and inject the text into the focused application.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/audio"
	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/config"
	"github.com/samarquis/ScottWisper-sub011/internal/hotkey"
	"github.com/samarquis/ScottWisper-sub011/internal/inject"
	"github.com/samarquis/ScottWisper-sub011/internal/logging"
	"github.com/samarquis/ScottWisper-sub011/internal/notify"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
	"github.com/samarquis/ScottWisper-sub011/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/scottwisper/config.yaml)")
	writeConfig := flag.Bool("write-config", false, "write a default config file and exit")
	flag.Parse()

	if *writeConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("writing default config: %v", err)
		}
		fmt.Println("Config written to", path)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	logRT, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logRT.Close()
	logger := logRT.Logger

	printBanner(cfg)

	transcriber, err := transcribe.NewCloudTranscriber(cfg.API, cfg.Audio, logger)
	if err != nil {
		log.Fatalf("Failed to initialize transcription client: %v", err)
	}
	defer transcriber.Close()
	log.Println("Transcription client ready")

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		log.Fatalf("Failed to initialize audio recorder: %v\n\nEnsure microphone access is granted in system privacy settings.", err)
	}
	log.Println("Audio recorder ready")

	profiles, err := compat.OpenFileStore(cfg.Compat.ProfilePath)
	if err != nil {
		log.Fatalf("Failed to open compatibility profiles: %v", err)
	}

	orchestrator := buildOrchestrator(cfg, profiles, logger)
	log.Println("Injection pipeline ready")

	listener := hotkey.NewListener(cfg.Hotkey.Keys, cfg.Hotkey.Mode)
	log.Printf("Hotkey listener ready (%s, mode: %s)", strings.Join(cfg.Hotkey.Keys, "+"), cfg.Hotkey.Mode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go listener.Start()

	log.Println("Ready! Press", strings.Join(cfg.Hotkey.Keys, "+"), "to dictate. Ctrl+C to quit.")

	events := listener.Events()
	// A new hotkey activation abandons the previous injection between
	// strategy attempts; the in-flight attempt is left to finish.
	var cancelPrev context.CancelFunc

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				log.Println("Hotkey listener stopped")
				recorder.Close()
				return
			}

			switch ev.Type {
			case hotkey.EventStart:
				if cancelPrev != nil {
					cancelPrev()
					cancelPrev = nil
				}
				if err := recorder.Start(); err != nil {
					log.Printf("ERROR: failed to start recording: %v", err)
					continue
				}
				log.Println("Recording...")

			case hotkey.EventStop:
				samples := recorder.Stop()
				if samples == nil {
					continue
				}

				duration := recorder.Duration(samples)
				if duration < 300*time.Millisecond {
					log.Printf("Recording too short (%s), skipping", duration.Round(10*time.Millisecond))
					continue
				}

				log.Printf("Captured %s of audio, transcribing...", duration.Round(10*time.Millisecond))

				ctx, cancel := context.WithCancel(context.Background())
				cancelPrev = cancel

				go func(ctx context.Context, samples []float32) {
					start := time.Now()
					text, err := transcriber.Process(samples)
					if err != nil {
						log.Printf("ERROR: transcription failed: %v", err)
						return
					}

					elapsed := time.Since(start).Round(time.Millisecond)
					if text == "" {
						log.Printf("No speech detected (%s)", elapsed)
						return
					}
					log.Printf("Transcribed in %s: %q", elapsed, text)

					res, err := orchestrator.Inject(ctx, text)
					if err != nil {
						if res.TextPreserved {
							log.Printf("ERROR: injection failed, text copied to clipboard: %v", err)
						} else {
							log.Printf("ERROR: injection failed: %v", err)
						}
						return
					}
					log.Printf("Text injected via %s (%d chars)", res.Strategy, res.Characters)
				}(ctx, samples)
			}

		case sig := <-sigCh:
			log.Printf("Received %s, shutting down...", sig)
			if recorder.IsRecording() {
				recorder.Stop()
			}
			recorder.Close()
			log.Println("Goodbye!")
			// Exit directly to avoid gohook's C cleanup crash.
			// The OS reclaims the event hook on process exit.
			os.Exit(0)
		}
	}
}

// buildOrchestrator wires the strategy cascade from config.
func buildOrchestrator(cfg *config.Config, profiles compat.Store, logger *slog.Logger) *inject.Orchestrator {
	resolver := target.NewSystemResolver(logger)
	clip := inject.SystemClipboard{}

	strategies := []inject.Strategy{
		inject.NewUIAutomationSetValue(inject.NewSystemAutomation()),
		inject.NewDirectKeystroke(inject.SystemKeystrokes{}, resolver, 0),
		inject.NewClipboardPaste(clip, inject.SystemPaster{}, resolver, 0, logger),
	}

	opts := inject.DefaultOptions()
	opts.Order = toStrategyNames(cfg.Inject.Order)
	opts.Disabled = toStrategyNames(cfg.Inject.Disabled)
	opts.SettleDelay = cfg.Inject.SettleDelay()
	opts.AttemptTimeout = cfg.Inject.AttemptTimeout()
	opts.PreserveOnFailure = cfg.Inject.PreserveOnFailure

	return inject.NewOrchestrator(resolver, profiles, strategies, clip, notify.Desktop{}, logger, opts)
}

func toStrategyNames(names []string) []inject.StrategyName {
	out := make([]inject.StrategyName, 0, len(names))
	for _, n := range names {
		out = append(out, inject.StrategyName(n))
	}
	return out
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== scottwisper ===")
	fmt.Printf("  API:     %s\n", cfg.API.Endpoint)
	fmt.Printf("  Hotkey:  %s (%s mode)\n", strings.Join(cfg.Hotkey.Keys, "+"), cfg.Hotkey.Mode)
	fmt.Printf("  Audio:   %dHz, %dch\n", cfg.Audio.SampleRate, cfg.Audio.Channels)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("===================")
}
