// Command test-inject is a manual test for the injection cascade.
// It waits 3 seconds, then runs the given text through the configured
// strategies against whatever window holds focus.
//
// Usage:
//
//	go run ./cmd/test-inject [--text "..."] [--order uiautomation,keystroke,clipboard]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/inject"
	"github.com/samarquis/ScottWisper-sub011/internal/notify"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

func main() {
	text := flag.String("text", "Hello from scottwisper! héllo 世界", "text to inject")
	order := flag.String("order", "", "comma-separated strategy order (default: per-profile or conservative)")
	verbose := flag.Bool("v", false, "log strategy attempts")
	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	if *verbose {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)

	resolver := target.NewSystemResolver(logger)
	clip := inject.SystemClipboard{}

	strategies := []inject.Strategy{
		inject.NewUIAutomationSetValue(inject.NewSystemAutomation()),
		inject.NewDirectKeystroke(inject.SystemKeystrokes{}, resolver, 0),
		inject.NewClipboardPaste(clip, inject.SystemPaster{}, resolver, 0, logger),
	}

	opts := inject.DefaultOptions()
	if *order != "" {
		for _, name := range strings.Split(*order, ",") {
			opts.Order = append(opts.Order, inject.StrategyName(strings.TrimSpace(name)))
		}
	}

	orch := inject.NewOrchestrator(resolver, compat.NewMemoryStore(), strategies, clip, notify.Nop{}, logger, opts)

	fmt.Printf("Will inject %q in 3 seconds...\n", *text)
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	res, err := orch.Inject(context.Background(), *text)
	for _, a := range res.Attempts {
		status := "ok"
		if !a.Outcome.Succeeded {
			status = string(a.Outcome.Reason)
		}
		fmt.Printf("  %-12s %-20s %s\n", a.Strategy, status, a.Outcome.Elapsed.Round(time.Millisecond))
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		if res.TextPreserved {
			fmt.Println("Text preserved on clipboard.")
		}
		os.Exit(1)
	}

	fmt.Printf("\nDone! Injected %d chars into %s via %s.\n", res.Characters, res.Target.ID(), res.Strategy)
}
