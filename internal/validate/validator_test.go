package validate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/inject"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// echoStrategy models a target control: a successful attempt writes
// the (possibly transformed) text into the shared buffer the readback
// reads from.
type echoStrategy struct {
	name      inject.StrategyName
	buf       *string
	transform func(string) string
	fail      bool
	calls     int
}

func (s *echoStrategy) Name() inject.StrategyName { return s.name }

func (s *echoStrategy) Attempt(ctx context.Context, text string, tgt target.Application) inject.Outcome {
	s.calls++
	if s.fail {
		return inject.Outcome{Reason: inject.ReasonUnsupportedControl}
	}
	out := text
	if s.transform != nil {
		out = s.transform(out)
	}
	*s.buf = out
	return inject.Outcome{Succeeded: true, CharactersDelivered: utf8.RuneCountInString(text)}
}

type bufReadback struct {
	buf *string
}

func (r *bufReadback) ReadText(ctx context.Context) (string, error) {
	return *r.buf, nil
}

type recordingFocuser struct {
	focused []string
}

func (f *recordingFocuser) Focus(applicationID string) error {
	f.focused = append(f.focused, applicationID)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testPipeline wires an orchestrator whose strategies write into a
// shared buffer, plus a validator reading that buffer back.
func testPipeline(t *testing.T, store compat.Store, strategies []inject.Strategy) (*Validator, *recordingFocuser) {
	t.Helper()
	opts := inject.DefaultOptions()
	opts.SettleDelay = 0
	orch := inject.NewOrchestrator(nil, store, strategies, nil, nil, quietLogger(), opts)

	buf := ""
	for _, s := range strategies {
		if es, ok := s.(*echoStrategy); ok && es.buf == nil {
			es.buf = &buf
		}
	}
	focuser := &recordingFocuser{}
	v := New(orch, store, &bufReadback{buf: &buf}, focuser, quietLogger(), WithSettle(0))
	return v, focuser
}

func echoSet(fail map[inject.StrategyName]bool) []inject.Strategy {
	var out []inject.Strategy
	for _, name := range inject.DefaultOrder() {
		out = append(out, &echoStrategy{name: name, fail: fail[name]})
	}
	return out
}

func TestValidatePlainEditorPasses(t *testing.T) {
	store := compat.NewMemoryStore()
	require.NoError(t, store.Update(compat.Profile{
		ApplicationID:  "notepad.exe",
		PreferredOrder: []string{"keystroke", "uiautomation", "clipboard"},
	}))

	v, focuser := testPipeline(t, store, echoSet(nil))

	report, err := v.Validate(context.Background(), "notepad.exe", []Scenario{
		{Name: "newlines-and-tabs", Category: CategoryWhitespace, Text: "Line one\nLine two\tTabbed"},
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Passed)
	assert.Equal(t, 1.0, res.Similarity)
	// The profile's first preferred strategy should have won.
	assert.Equal(t, inject.StrategyKeystroke, res.Strategy)
	assert.True(t, report.Passed)
	assert.Equal(t, 1.0, report.Overall)
	assert.Equal(t, []string{"notepad.exe"}, focuser.focused)
}

func TestValidateTrailingWhitespaceLimitation(t *testing.T) {
	store := compat.NewMemoryStore()
	require.NoError(t, store.Update(compat.Profile{
		ApplicationID:    "windowsterminal.exe",
		PreferredOrder:   []string{"clipboard", "keystroke", "uiautomation"},
		KnownLimitations: []string{compat.LimitTrailingWhitespace},
	}))

	// Target strips trailing whitespace from every line.
	strategies := []inject.Strategy{
		&echoStrategy{name: inject.StrategyClipboard, transform: func(s string) string {
			lines := strings.Split(s, "\n")
			for i := range lines {
				lines[i] = strings.TrimRight(lines[i], " \t")
			}
			return strings.Join(lines, "\n")
		}},
	}
	v, _ := testPipeline(t, store, strategies)

	report, err := v.Validate(context.Background(), "windowsterminal.exe", []Scenario{
		{Name: "trailing", Category: CategoryWhitespace, Text: "Line one   \nLine two\t"},
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Passed,
		"divergence explained by a declared limitation must pass: %s", report.Results[0].Detail)
	assert.True(t, report.Passed)
}

func TestValidateUndeclaredLossFails(t *testing.T) {
	store := compat.NewMemoryStore()
	require.NoError(t, store.Update(compat.Profile{
		ApplicationID:  "editor.exe",
		PreferredOrder: []string{"keystroke"},
	}))

	// Target uppercases everything; no limitation declares it.
	strategies := []inject.Strategy{
		&echoStrategy{name: inject.StrategyKeystroke, transform: strings.ToUpper},
	}
	v, _ := testPipeline(t, store, strategies)

	report, err := v.Validate(context.Background(), "editor.exe", []Scenario{
		{Name: "plain", Category: CategoryASCII, Text: "hello"},
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Passed)
	assert.False(t, report.Passed)
	assert.Less(t, report.Overall, 1.0)
}

func TestValidateUpdatesPreferredOrder(t *testing.T) {
	store := compat.NewMemoryStore()
	require.NoError(t, store.Update(compat.Profile{
		ApplicationID:  "app.exe",
		PreferredOrder: []string{"uiautomation", "keystroke", "clipboard"},
	}))

	// UI Automation fails everywhere; keystroke carries every scenario.
	v, _ := testPipeline(t, store, echoSet(map[inject.StrategyName]bool{
		inject.StrategyUIAutomation: true,
	}))

	report, err := v.Validate(context.Background(), "app.exe", nil)
	require.NoError(t, err)
	assert.True(t, report.Passed)

	p, ok := store.Get("app.exe")
	require.True(t, ok)
	assert.Equal(t, "keystroke", p.PreferredOrder[0],
		"the strategy that carried the run should be preferred, got %v", p.PreferredOrder)
	assert.Equal(t, report.Overall, p.LastAccuracy)
	assert.False(t, p.LastValidatedAt.IsZero())
}

func TestValidateUnknownApplicationCreatesProfile(t *testing.T) {
	store := compat.NewMemoryStore()
	v, _ := testPipeline(t, store, echoSet(nil))

	report, err := v.Validate(context.Background(), "newapp.exe", []Scenario{
		{Name: "plain", Category: CategoryASCII, Text: "hello"},
	})
	require.NoError(t, err)
	assert.True(t, report.Passed)

	p, ok := store.Get("newapp.exe")
	require.True(t, ok, "validation must create the profile")
	assert.NotEmpty(t, p.PreferredOrder)
}

func TestValidateUsesBuiltinScenariosByDefault(t *testing.T) {
	store := compat.NewMemoryStore()
	v, _ := testPipeline(t, store, echoSet(nil))

	report, err := v.Validate(context.Background(), "app.exe", nil)
	require.NoError(t, err)
	assert.Len(t, report.Results, len(BuiltinScenarios()))
}

func TestRankStrategiesTieBreaksByPrevious(t *testing.T) {
	prev := []string{"clipboard", "keystroke", "uiautomation"}
	got := rankStrategies(map[inject.StrategyName]int{}, prev)
	assert.Equal(t, prev, got, "no evidence must not reshuffle the previous order")

	got = rankStrategies(map[inject.StrategyName]int{
		inject.StrategyUIAutomation: 5,
		inject.StrategyKeystroke:    5,
	}, prev)
	assert.Equal(t, []string{"keystroke", "uiautomation", "clipboard"}, got)
}
