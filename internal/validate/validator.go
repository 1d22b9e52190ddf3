package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/inject"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// Readback retrieves the text a target application ended up with.
type Readback interface {
	ReadText(ctx context.Context) (string, error)
}

// Focuser brings a target application's window into focus.
type Focuser interface {
	Focus(applicationID string) error
}

// ScenarioResult is the scored outcome of one scenario.
type ScenarioResult struct {
	Scenario   string
	Category   string
	Strategy   inject.StrategyName // winning strategy, empty on failure
	Similarity float64
	Passed     bool
	Detail     string // failure explanation for the report
}

// Report aggregates a validation run for one application.
type Report struct {
	ApplicationID string
	RanAt         time.Time
	Results       []ScenarioResult
	// Overall is the mean similarity across scenarios.
	Overall float64
	// Passed is true when every scenario passed.
	Passed bool
}

// Validator runs scenario batteries through the injection pipeline.
// It is the only writer of compatibility profiles.
type Validator struct {
	orch      *inject.Orchestrator
	store     compat.Store
	readback  Readback
	focuser   Focuser
	threshold float64
	settle    time.Duration
	logger    *slog.Logger
}

// Option tunes a Validator.
type Option func(*Validator)

// WithThreshold sets the acceptance threshold for post-normalization
// similarity. The default of 1.0 demands an exact match; anything
// lossier must be declared as a known limitation.
func WithThreshold(t float64) Option {
	return func(v *Validator) { v.threshold = t }
}

// WithSettle sets the pause between injecting and reading back.
func WithSettle(d time.Duration) Option {
	return func(v *Validator) { v.settle = d }
}

// New creates a Validator. logger may be nil.
func New(orch *inject.Orchestrator, store compat.Store, readback Readback, focuser Focuser, logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{
		orch:      orch,
		store:     store,
		readback:  readback,
		focuser:   focuser,
		threshold: 1.0,
		settle:    200 * time.Millisecond,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate drives every scenario against the application, scores the
// read-back text, updates the application's compatibility profile, and
// returns the report. The injection pipeline is reserved for the whole
// run so live dictation cannot interleave.
func (v *Validator) Validate(ctx context.Context, applicationID string, scenarios []Scenario) (Report, error) {
	if len(scenarios) == 0 {
		scenarios = BuiltinScenarios()
	}

	report := Report{
		ApplicationID: applicationID,
		RanAt:         time.Now(),
	}

	profile, known := v.store.Get(applicationID)
	if !known {
		profile = compat.Profile{ApplicationID: applicationID}
	}

	resv, err := v.orch.Reserve(ctx)
	if err != nil {
		return report, fmt.Errorf("validate: reserving injection pipeline: %w", err)
	}
	defer resv.Release()

	successes := make(map[inject.StrategyName]int)
	var totalSimilarity float64
	allPassed := true

	for _, sc := range scenarios {
		result := v.runScenario(ctx, resv, profile, sc)
		if result.Strategy != "" && result.Passed {
			successes[result.Strategy]++
		}
		totalSimilarity += result.Similarity
		if !result.Passed {
			allPassed = false
		}
		report.Results = append(report.Results, result)

		v.logger.Info("scenario validated",
			"app", applicationID,
			"scenario", sc.Name,
			"strategy", string(result.Strategy),
			"similarity", result.Similarity,
			"passed", result.Passed)
	}

	report.Overall = totalSimilarity / float64(len(scenarios))
	report.Passed = allPassed

	profile.PreferredOrder = rankStrategies(successes, profile.PreferredOrder)
	profile.LastAccuracy = report.Overall
	profile.LastValidatedAt = report.RanAt
	if err := v.store.Update(profile); err != nil {
		return report, fmt.Errorf("validate: updating profile: %w", err)
	}

	return report, nil
}

// runScenario injects one scenario and scores the read-back.
func (v *Validator) runScenario(ctx context.Context, resv *inject.Reservation, profile compat.Profile, sc Scenario) ScenarioResult {
	result := ScenarioResult{Scenario: sc.Name, Category: sc.Category}

	if err := v.focuser.Focus(profile.ApplicationID); err != nil {
		result.Detail = fmt.Sprintf("focusing target: %v", err)
		return result
	}

	tgt := target.Application{ProcessName: profile.ApplicationID}
	res, err := resv.Inject(ctx, inject.Request{Text: sc.Text, Target: &tgt})
	if err != nil {
		result.Detail = fmt.Sprintf("injection: %v", err)
		return result
	}
	result.Strategy = res.Strategy

	if err := v.wait(ctx); err != nil {
		result.Detail = fmt.Sprintf("settle: %v", err)
		return result
	}

	actual, err := v.readback.ReadText(ctx)
	if err != nil {
		result.Detail = fmt.Sprintf("read-back: %v", err)
		return result
	}

	expected := ApplyLimitations(sc.Text, profile.KnownLimitations)
	actual = ApplyLimitations(actual, profile.KnownLimitations)
	result.Similarity = Score(expected, actual)
	result.Passed = result.Similarity >= v.threshold
	if !result.Passed {
		result.Detail = fmt.Sprintf("similarity %.3f below threshold %.3f", result.Similarity, v.threshold)
	}
	return result
}

func (v *Validator) wait(ctx context.Context) error {
	if v.settle <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(v.settle):
		return nil
	}
}

// rankStrategies orders strategies by scenario success count, breaking
// ties by the previous preferred order so validated knowledge is not
// discarded on equal evidence. Strategies that never succeeded keep
// their previous relative order at the tail.
func rankStrategies(successes map[inject.StrategyName]int, previous []string) []string {
	// Start from previous order, fill in any missing defaults.
	base := make([]inject.StrategyName, 0, 3)
	seen := make(map[inject.StrategyName]bool)
	for _, name := range previous {
		sn := inject.StrategyName(name)
		if !seen[sn] {
			base = append(base, sn)
			seen[sn] = true
		}
	}
	for _, sn := range inject.DefaultOrder() {
		if !seen[sn] {
			base = append(base, sn)
			seen[sn] = true
		}
	}

	// Stable sort by success count descending.
	ordered := make([]inject.StrategyName, len(base))
	copy(ordered, base)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && successes[ordered[j]] > successes[ordered[j-1]]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	out := make([]string, len(ordered))
	for i, sn := range ordered {
		out[i] = string(sn)
	}
	return out
}
