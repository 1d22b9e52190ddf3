// Command validate runs the compatibility scenario battery against a
// target application and updates its injection profile. Launch the
// target, then run this with its process name; the tool focuses the
// window, injects each scenario, reads the text back, and scores it.
//
// Usage:
//
//	go run ./cmd/validate --app notepad.exe [--readback clipboard|uiautomation]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/config"
	"github.com/samarquis/ScottWisper-sub011/internal/inject"
	"github.com/samarquis/ScottWisper-sub011/internal/logging"
	"github.com/samarquis/ScottWisper-sub011/internal/notify"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
	"github.com/samarquis/ScottWisper-sub011/internal/validate"
)

func main() {
	app := flag.String("app", "", "target application process name (e.g. notepad.exe)")
	readbackKind := flag.String("readback", "uiautomation", "read-back method: uiautomation or clipboard")
	category := flag.String("category", "", "run only scenarios in this category")
	profilePath := flag.String("profiles", "", "profile cache path (default: config value)")
	threshold := flag.Float64("threshold", 1.0, "similarity acceptance threshold")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	if *app == "" {
		flag.Usage()
		os.Exit(2)
	}
	appID := target.NormalizeProcessName(*app)

	logRT, err := logging.New("info")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logRT.Close()
	logger := logRT.Logger

	path := *profilePath
	if path == "" {
		path = config.Default().Compat.ProfilePath
	}
	profiles, err := compat.OpenFileStore(path)
	if err != nil {
		log.Fatalf("opening profile store: %v", err)
	}

	resolver := target.NewSystemResolver(logger)
	clip := inject.SystemClipboard{}
	auto := inject.NewSystemAutomation()

	strategies := []inject.Strategy{
		inject.NewUIAutomationSetValue(auto),
		inject.NewDirectKeystroke(inject.SystemKeystrokes{}, resolver, 0),
		inject.NewClipboardPaste(clip, inject.SystemPaster{}, resolver, 0, logger),
	}
	orch := inject.NewOrchestrator(resolver, profiles, strategies, clip, notify.Nop{}, logger, inject.DefaultOptions())

	var readback validate.Readback
	switch *readbackKind {
	case "uiautomation":
		readback = validate.NewAutomationReadback(auto)
	case "clipboard":
		readback = validate.NewClipboardReadback(clip, 0)
	default:
		log.Fatalf("unknown readback method %q", *readbackKind)
	}

	scenarios := validate.BuiltinScenarios()
	if *category != "" {
		scenarios = filterByCategory(scenarios, *category)
		if len(scenarios) == 0 {
			log.Fatalf("no scenarios in category %q", *category)
		}
	}

	v := validate.New(orch, profiles, readback, validate.SystemFocuser{}, logger,
		validate.WithThreshold(*threshold))

	fmt.Printf("Validating %s (%d scenarios)...\n", appID, len(scenarios))
	fmt.Println("Leave the target window alone until the run finishes.")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := v.Validate(ctx, appID, scenarios)
	printReport(report)
	if err != nil {
		log.Fatalf("validation run: %v", err)
	}

	profile, _ := profiles.Get(appID)
	fmt.Printf("\nProfile updated: preferred order %s, accuracy %.3f\n",
		strings.Join(profile.PreferredOrder, " > "), profile.LastAccuracy)

	if !report.Passed {
		os.Exit(1)
	}
}

func filterByCategory(scenarios []validate.Scenario, category string) []validate.Scenario {
	var out []validate.Scenario
	for _, sc := range scenarios {
		if sc.Category == category {
			out = append(out, sc)
		}
	}
	return out
}

func printReport(report validate.Report) {
	fmt.Printf("\n%-24s %-14s %-12s %10s  %s\n", "SCENARIO", "CATEGORY", "STRATEGY", "SIMILARITY", "RESULT")
	for _, r := range report.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			if r.Detail != "" {
				status += " (" + r.Detail + ")"
			}
		}
		fmt.Printf("%-24s %-14s %-12s %10.3f  %s\n", r.Scenario, r.Category, string(r.Strategy), r.Similarity, status)
	}
	fmt.Printf("\nOverall similarity: %.3f\n", report.Overall)
}
