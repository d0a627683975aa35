package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/moot/internal/config"
	"github.com/dyluth/moot/internal/monitor"
	"github.com/dyluth/moot/internal/runstore"
	"github.com/dyluth/moot/internal/scoring"
	"github.com/dyluth/moot/pkg/agentbus"
)

// fakeAgents is a scripted AgentService: each session title maps to one
// canned response. A title with no scripted response never produces output,
// which drives the monitor to its timeout. onPrompt, when set, runs as the
// prompt is sent, standing in for whatever the runner does with it.
type fakeAgents struct {
	mu        sync.Mutex
	counter   int
	titles    map[string]string // sessionID -> title
	responses map[string]string // title -> response text
	prompts   map[string]string // title -> prompt sent
	onPrompt  func(title, prompt string)
}

func newFakeAgents(responses map[string]string) *fakeAgents {
	return &fakeAgents{
		titles:    make(map[string]string),
		responses: responses,
		prompts:   make(map[string]string),
	}
}

func (f *fakeAgents) CreateSession(ctx context.Context, parentID, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	id := fmt.Sprintf("session-%d", f.counter)
	f.titles[id] = title
	return id, nil
}

func (f *fakeAgents) SendPrompt(ctx context.Context, sessionID, text string, toolPermissions []string) error {
	f.mu.Lock()
	title := f.titles[sessionID]
	f.prompts[title] = text
	hook := f.onPrompt
	f.mu.Unlock()

	if hook != nil {
		hook(title, text)
	}
	return nil
}

func (f *fakeAgents) Status(ctx context.Context, sessionID string) (agentbus.SessionStatus, error) {
	return agentbus.SessionStatusIdle, nil
}

func (f *fakeAgents) Messages(ctx context.Context, sessionID string) ([]agentbus.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.responses[f.titles[sessionID]]
	if !ok {
		return nil, nil
	}
	return []agentbus.Message{
		{ID: sessionID + "-r1", SessionID: sessionID, Role: agentbus.MessageRoleResponse, Text: text},
	}, nil
}

func (f *fakeAgents) MessageCount(ctx context.Context, sessionID string) (int, error) {
	messages, _ := f.Messages(ctx, sessionID)
	return len(messages), nil
}

func testConfig() *config.MootConfig {
	return &config.MootConfig{
		Version: "1.0",
		Generators: map[string]config.Model{
			"alpha": {Image: "moot-runner:latest"},
			"beta":  {Image: "moot-runner:latest"},
		},
		Reviewers: map[string]config.Model{
			"rev1": {Image: "moot-runner:latest"},
		},
		Criteria: []scoring.Criterion{
			{Name: "clarity", Weight: 1, Min: 0, Max: 10},
			{Name: "feasibility", Weight: 1, Min: 0, Max: 10},
		},
		Monitor: &config.MonitorConfig{PollInterval: "1ms", Timeout: "200ms"},
	}
}

func designResponse(title string) string {
	return fmt.Sprintf("Here you go:\n```json\n{\"title\": %q, \"summary\": \"s\", \"content\": \"# Design\"}\n```", title)
}

func reviewResponse(strengths, weaknesses string) string {
	return fmt.Sprintf("```json\n{\"strengths\": [%q], \"weaknesses\": [%q]}\n```", strengths, weaknesses)
}

func scoreResponse(clarity, feasibility float64) string {
	return fmt.Sprintf("```json\n{\"scores\": [{\"name\": \"clarity\", \"value\": %g}, {\"name\": \"feasibility\", \"value\": %g}]}\n```", clarity, feasibility)
}

func TestRun_EndToEnd(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":    designResponse("Layered cache"),
		"generate:beta":     designResponse("Write-through cache"),
		"review:alpha:rev1": reviewResponse("clear API", "no metrics"),
		"review:beta:rev1":  reviewResponse("simple", "slow"),
		"score:alpha:rev1":  scoreResponse(8, 9),
		"score:beta:rev1":   scoreResponse(6, 7),
	})

	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "design a cache")
	require.NoError(t, err)
	assert.Empty(t, result.Failures)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "alpha", result.Entries[0].DesignID)
	assert.Equal(t, 8.5, result.Entries[0].Overall)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, "beta", result.Entries[1].DesignID)
	assert.Equal(t, 6.5, result.Entries[1].Overall)

	// All artifacts persisted per the run layout
	assert.FileExists(t, filepath.Join(result.Run.Path, "task.json"))
	assert.FileExists(t, filepath.Join(result.Run.Path, "designs", "alpha.json"))
	assert.FileExists(t, filepath.Join(result.Run.Path, "reviews", "review-alpha-rev1.json"))
	assert.FileExists(t, filepath.Join(result.Run.Path, "scores", "score-beta-rev1.json"))
	assert.FileExists(t, filepath.Join(result.Run.Path, "results", "ranking.json"))
	assert.FileExists(t, filepath.Join(result.Run.Path, "results", "results.md"))

	// The ranking file round-trips
	loaded, err := result.Run.LoadRanking()
	require.NoError(t, err)
	assert.Equal(t, result.Entries, loaded)
}

func TestRun_DuplicateRunIsFatal(t *testing.T) {
	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(newFakeAgents(nil), store, testConfig())

	_, err := engine.Run(context.Background(), "Cache Design", "")
	// The first run fails per-model (no scripted responses) but completes
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), "Cache Design", "")
	var dupErr *runstore.DuplicateRunError
	require.ErrorAs(t, err, &dupErr)
}

func TestRun_GenerationFailureDoesNotAbortOthers(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":   "I cannot produce a design right now.",
		"generate:beta":    designResponse("Write-through cache"),
		"review:beta:rev1": reviewResponse("simple", "slow"),
		"score:beta:rev1":  scoreResponse(6, 7),
	})

	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "")
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "alpha", result.Failures[0].Model)
	assert.Equal(t, "generation", result.Failures[0].Phase)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "beta", result.Entries[0].DesignID)
	assert.Equal(t, 1, result.Entries[0].Rank)
}

func TestRun_TimeoutIsRecordedNotFatal(t *testing.T) {
	// alpha's session never produces output, so its monitor times out;
	// beta still completes and gets ranked.
	agents := newFakeAgents(map[string]string{
		"generate:beta":    designResponse("Write-through cache"),
		"review:beta:rev1": reviewResponse("simple", "slow"),
		"score:beta:rev1":  scoreResponse(6, 7),
	})

	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "")
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "generation", result.Failures[0].Phase)
	assert.Contains(t, result.Failures[0].Message, "did not stabilize")

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "beta", result.Entries[0].DesignID)
}

func TestRun_OutOfRangeScoreIsRecorded(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":    designResponse("Layered cache"),
		"generate:beta":     designResponse("Write-through cache"),
		"review:alpha:rev1": reviewResponse("clear", "verbose"),
		"review:beta:rev1":  reviewResponse("simple", "slow"),
		"score:alpha:rev1":  scoreResponse(8, 42),
		"score:beta:rev1":   scoreResponse(6, 7),
	})

	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "")
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "rev1", result.Failures[0].Model)
	assert.Equal(t, "scoring", result.Failures[0].Phase)
	assert.Equal(t, "alpha", result.Failures[0].Design, "the failure must name the design being scored")
	assert.Contains(t, result.Failures[0].Message, "outside")

	// alpha keeps its placeholder aggregates and still appears in the ranking
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "beta", result.Entries[0].DesignID)
	for _, score := range result.Entries[1].Scores {
		assert.Equal(t, scoring.NoScoresComment, score.Comments)
	}
}

func TestRun_CrossOwnerWriteIsViolation(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":   designResponse("Layered cache"),
		"generate:beta":    designResponse("Write-through cache"),
		"review:beta:rev1": reviewResponse("simple", "slow"),
		"score:beta:rev1":  scoreResponse(6, 7),
	})

	baseDir := t.TempDir()

	// While alpha's generation session runs, a file lands in beta's
	// workspace. The post-session audit must void alpha's candidacy.
	agents.onPrompt = func(title, prompt string) {
		if title != "generate:alpha" {
			return
		}
		runDirs, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		require.Len(t, runDirs, 1)

		stolen := filepath.Join(baseDir, runDirs[0].Name(), "designs", "beta")
		require.NoError(t, os.MkdirAll(stolen, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(stolen, "stolen.md"), []byte("mine now"), 0644))
	}

	store := runstore.NewStore(baseDir)
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "")
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "alpha", result.Failures[0].Model)
	assert.Equal(t, "generation", result.Failures[0].Phase)
	assert.Contains(t, result.Failures[0].Message, "isolation violation")

	// alpha never gets a persisted design; beta is unaffected and ranks
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "beta", result.Entries[0].DesignID)
	assert.NoFileExists(t, filepath.Join(baseDir, result.Run.Name, "designs", "alpha.json"))
}

func TestRun_OwnWorkspaceWritesPassAudit(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":    designResponse("Layered cache"),
		"review:alpha:rev1": reviewResponse("clear", "verbose"),
		"score:alpha:rev1":  scoreResponse(8, 9),
	})

	baseDir := t.TempDir()

	// Scratch files inside the candidate's own workspace are legitimate.
	agents.onPrompt = func(title, prompt string) {
		if title != "generate:alpha" {
			return
		}
		runDirs, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		require.Len(t, runDirs, 1)

		workspace := filepath.Join(baseDir, runDirs[0].Name(), "designs", "alpha")
		require.NoError(t, os.WriteFile(filepath.Join(workspace, "draft.md"), []byte("wip"), 0644))
	}

	cfg := testConfig()
	delete(cfg.Generators, "beta")

	store := runstore.NewStore(baseDir)
	engine := NewEngine(agents, store, cfg)

	result, err := engine.Run(context.Background(), "Cache Design", "")
	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "alpha", result.Entries[0].DesignID)
}

func TestRun_CancellationIsFatal(t *testing.T) {
	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(newFakeAgents(nil), store, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, "Cache Design", "")
	require.Error(t, err)

	var cancelledErr *monitor.CancelledError
	assert.ErrorAs(t, err, &cancelledErr)
}

func TestRun_PromptsCarryWorkspaceAndCriteria(t *testing.T) {
	agents := newFakeAgents(map[string]string{
		"generate:alpha":    designResponse("Layered cache"),
		"generate:beta":     designResponse("Write-through cache"),
		"review:alpha:rev1": reviewResponse("a", "b"),
		"review:beta:rev1":  reviewResponse("a", "b"),
		"score:alpha:rev1":  scoreResponse(5, 5),
		"score:beta:rev1":   scoreResponse(5, 5),
	})

	store := runstore.NewStore(t.TempDir())
	engine := NewEngine(agents, store, testConfig())

	result, err := engine.Run(context.Background(), "Cache Design", "design a cache")
	require.NoError(t, err)

	workspace := filepath.Join(result.Run.Path, "designs", "alpha")
	assert.Contains(t, agents.prompts["generate:alpha"], workspace)
	assert.Contains(t, agents.prompts["generate:alpha"], "design a cache")
	assert.Contains(t, agents.prompts["score:alpha:rev1"], "clarity (0 to 10)")
	assert.DirExists(t, workspace)
}
