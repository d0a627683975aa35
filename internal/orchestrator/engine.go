// Package orchestrator drives a full design tournament: generation, review,
// scoring, aggregation, and ranking, with all artifacts persisted per run.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dyluth/moot/internal/config"
	"github.com/dyluth/moot/internal/extract"
	"github.com/dyluth/moot/internal/isolation"
	"github.com/dyluth/moot/internal/monitor"
	"github.com/dyluth/moot/internal/ranking"
	"github.com/dyluth/moot/internal/runstore"
	"github.com/dyluth/moot/internal/scoring"
	"github.com/dyluth/moot/pkg/agentbus"
)

// Engine runs one tournament end to end. Model invocations are strictly
// sequential, one session at a time, which avoids contention on the bus and
// keeps run output deterministic.
type Engine struct {
	agents  AgentService
	store   *runstore.Store
	cfg     *config.MootConfig
	monitor monitor.Monitor
	guard   *isolation.Guard
}

// Result is the outcome of one tournament run. A non-empty failure list
// with a non-nil result means the run completed partially.
type Result struct {
	Run      *runstore.Run
	Entries  []ranking.Entry
	Failures []runstore.Failure
}

// candidate tracks one design through the pipeline after generation.
type candidate struct {
	id       string
	model    string
	artifact *runstore.DesignArtifact
	reviews  []ranking.Review
	scores   []scoring.Score
}

// NewEngine creates an engine wired to the given bus and artifact store.
func NewEngine(agents AgentService, store *runstore.Store, cfg *config.MootConfig) *Engine {
	return &Engine{
		agents:  agents,
		store:   store,
		cfg:     cfg,
		monitor: monitor.New(cfg.PollInterval(), cfg.StabilityThreshold(), cfg.Timeout()),
		guard:   isolation.NewGuard(cfg.IsolationEnabled()),
	}
}

// Run executes the tournament for one topic and returns the ranking plus
// any per-model failures. Fatal errors (duplicate run directory, nothing to
// rank) abort; per-model errors are recorded and the pipeline continues.
func (e *Engine) Run(ctx context.Context, topic, brief string) (*Result, error) {
	run, err := e.store.CreateRun(topic, time.Now())
	if err != nil {
		return nil, err
	}

	e.logEvent("run_started", map[string]interface{}{
		"run":        run.Name,
		"generators": len(e.cfg.Generators),
		"reviewers":  len(e.cfg.Reviewers),
	})

	if err := run.WriteTask(runstore.Task{
		Topic:      topic,
		Prompt:     brief,
		Generators: sortedNames(e.cfg.Generators),
		Reviewers:  sortedNames(e.cfg.Reviewers),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	var failures []runstore.Failure
	record := func(model, phase, design string, err error) {
		e.logEvent("model_failed", map[string]interface{}{
			"model":  model,
			"phase":  phase,
			"design": design,
			"error":  err.Error(),
		})
		failures = append(failures, runstore.Failure{Model: model, Phase: phase, Design: design, Message: err.Error()})
	}

	// Generation: each candidate owns an exclusive sub-path of designs/
	// while its session runs; the scope is discarded when the phase ends.
	var candidates []*candidate
	for _, name := range sortedNames(e.cfg.Generators) {
		c, err := e.generate(ctx, run, name, topic, brief)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			record(name, "generation", name, err)
			continue
		}
		candidates = append(candidates, c)
	}

	// Review and scoring are independent of each other but both require the
	// candidate's design to be durably persisted, which generate guarantees.
	for _, c := range candidates {
		for _, reviewer := range sortedNames(e.cfg.Reviewers) {
			if e.cfg.ReviewEnabled() {
				review, err := e.review(ctx, run, c, reviewer, topic)
				if err != nil {
					if isFatal(err) {
						return nil, err
					}
					record(reviewer, "review", c.id, err)
				} else {
					c.reviews = append(c.reviews, *review)
				}
			}

			if e.cfg.ScoringEnabled() {
				scores, err := e.score(ctx, run, c, reviewer, topic)
				if err != nil {
					if isFatal(err) {
						return nil, err
					}
					record(reviewer, "scoring", c.id, err)
				} else {
					c.scores = append(c.scores, scores...)
				}
			}
		}
	}

	if len(candidates) == 0 {
		if err := run.WriteResults(topic, nil, failures); err != nil {
			return nil, err
		}
		return &Result{Run: run, Failures: failures}, nil
	}

	// Aggregation and ranking only ever see successful results; missing
	// scores surface as placeholder aggregates, never as errors.
	rankingInput := make([]ranking.Candidate, len(candidates))
	for i, c := range candidates {
		rankingInput[i] = ranking.Candidate{
			DesignID:    c.id,
			GeneratedBy: c.model,
			Scores:      scoring.Aggregate(e.cfg.Criteria, c.scores),
			Reviews:     c.reviews,
		}
	}
	entries := ranking.Rank(rankingInput)

	if err := run.WriteRanking(entries); err != nil {
		return nil, err
	}
	if err := run.WriteResults(topic, entries, failures); err != nil {
		return nil, err
	}

	e.logEvent("run_completed", map[string]interface{}{
		"run":      run.Name,
		"ranked":   len(entries),
		"failures": len(failures),
	})

	return &Result{Run: run, Entries: entries, Failures: failures}, nil
}

// generate runs one generator session and persists the resulting design.
// While the session runs, the candidate owns its sub-path of the designs
// root; anything that appears elsewhere under the root during the session is
// an isolation violation that voids the candidate.
func (e *Engine) generate(ctx context.Context, run *runstore.Run, name, topic, brief string) (*candidate, error) {
	scope := isolation.Scope{RootPath: run.DesignsRoot(), OwnerID: name}
	workspace := scope.OwnerDir()

	if err := e.guard.Check(isolation.OpWrite, workspace, scope); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	before, err := listTree(run.DesignsRoot())
	if err != nil {
		return nil, fmt.Errorf("failed to scan designs root: %w", err)
	}

	text, err := e.invoke(ctx, "generate:"+name, generationPrompt(topic, brief, workspace), []string{"read", "write"})
	if err != nil {
		return nil, err
	}

	if err := e.auditWorkspace(run, scope, before); err != nil {
		return nil, err
	}

	var artifact runstore.DesignArtifact
	if err := extract.JSON(text, &artifact); err != nil {
		return nil, err
	}
	artifact.ID = name
	artifact.GeneratedBy = e.modelName(e.cfg.Generators, name)

	if _, err := run.WriteDesign(artifact); err != nil {
		return nil, err
	}

	e.logEvent("design_persisted", map[string]interface{}{
		"design": artifact.ID,
		"model":  artifact.GeneratedBy,
	})

	return &candidate{id: artifact.ID, model: artifact.GeneratedBy, artifact: &artifact}, nil
}

// review runs one reviewer session for one candidate.
func (e *Engine) review(ctx context.Context, run *runstore.Run, c *candidate, reviewer, topic string) (*ranking.Review, error) {
	text, err := e.invoke(ctx, fmt.Sprintf("review:%s:%s", c.id, reviewer), reviewPrompt(topic, c.artifact.Content), []string{"read"})
	if err != nil {
		return nil, err
	}

	var review ranking.Review
	if err := extract.JSON(text, &review); err != nil {
		return nil, err
	}
	review.Model = e.modelName(e.cfg.Reviewers, reviewer)

	if err := run.WriteReview(c.id, review); err != nil {
		return nil, err
	}
	return &review, nil
}

// score runs one scoring session for one candidate and validates the
// returned scores against the configured criteria.
func (e *Engine) score(ctx context.Context, run *runstore.Run, c *candidate, reviewer, topic string) ([]scoring.Score, error) {
	text, err := e.invoke(ctx, fmt.Sprintf("score:%s:%s", c.id, reviewer), scoringPrompt(topic, c.artifact.Content, e.cfg.Criteria), []string{"read"})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Scores []scoring.Score `json:"scores"`
	}
	if err := extract.JSON(text, &payload); err != nil {
		return nil, err
	}

	model := e.modelName(e.cfg.Reviewers, reviewer)
	for i := range payload.Scores {
		score := &payload.Scores[i]
		criterion, ok := e.criterion(score.Name)
		if !ok {
			return nil, &runstore.SchemaValidationError{Model: model, Reason: fmt.Sprintf("unknown criterion '%s'", score.Name)}
		}
		if score.Value < criterion.Min || score.Value > criterion.Max {
			return nil, &runstore.SchemaValidationError{
				Model:  model,
				Reason: fmt.Sprintf("criterion '%s': value %g outside [%g, %g]", score.Name, score.Value, criterion.Min, criterion.Max),
			}
		}
		score.Model = model
		score.Weight = criterion.EffectiveWeight()
	}

	if err := run.WriteScores(c.id, reviewer, payload.Scores); err != nil {
		return nil, err
	}
	return payload.Scores, nil
}

// invoke runs one full session round-trip: create, prompt, await
// completion, and return the last response text.
func (e *Engine) invoke(ctx context.Context, title, prompt string, toolPermissions []string) (string, error) {
	sessionID, err := e.agents.CreateSession(ctx, "", title)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	if err := e.agents.SendPrompt(ctx, sessionID, prompt, toolPermissions); err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}

	if err := e.monitor.AwaitCompletion(ctx, &busHandle{agents: e.agents, sessionID: sessionID}); err != nil {
		return "", err
	}

	messages, err := e.agents.Messages(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to read session messages: %w", err)
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == agentbus.MessageRoleResponse {
			return messages[i].Text, nil
		}
	}
	return "", fmt.Errorf("session '%s' completed with no response messages", title)
}

// auditWorkspace runs every path that appeared under the designs root during
// a generation session through the guard with that session's scope. The
// audit happens while the owner is still bound; the engine's own artifact
// persistence runs afterwards, outside any scope.
func (e *Engine) auditWorkspace(run *runstore.Run, scope isolation.Scope, before map[string]bool) error {
	after, err := listTree(run.DesignsRoot())
	if err != nil {
		return fmt.Errorf("failed to scan designs root: %w", err)
	}

	for path := range after {
		if before[path] {
			continue
		}
		if err := e.guard.Check(isolation.OpWrite, path, scope); err != nil {
			return err
		}
	}
	return nil
}

// listTree returns the set of paths currently present under root.
func listTree(root string) (map[string]bool, error) {
	paths := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root {
			paths[path] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Engine) criterion(name string) (scoring.Criterion, bool) {
	for _, criterion := range e.cfg.Criteria {
		if criterion.Name == name {
			return criterion, true
		}
	}
	return scoring.Criterion{}, false
}

// modelName resolves the display identity of a configured model entry.
func (e *Engine) modelName(models map[string]config.Model, name string) string {
	if m, ok := models[name]; ok && m.Model != "" {
		return m.Model
	}
	return name
}

// isFatal reports whether an error must abort the whole run instead of
// being recorded as a per-model failure. Cancellation always aborts.
func isFatal(err error) bool {
	var cancelled *monitor.CancelledError
	if errors.As(err, &cancelled) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func sortedNames(models map[string]config.Model) []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "engine"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Engine] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
