// Package runstore persists tournament run artifacts to the filesystem.
//
// Each run owns one directory named {date}-{topic-slug} under the store's
// base directory:
//
//	designs/<candidate-id>.json
//	reviews/review-<candidate>-<model>.json
//	scores/score-<candidate>-<model>.json
//	results/ranking.json
//	results/results.md
//	task.json
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/moot/internal/ranking"
	"github.com/dyluth/moot/internal/scoring"
)

const (
	designsDir = "designs"
	reviewsDir = "reviews"
	scoresDir  = "scores"
	resultsDir = "results"

	rankingFile = "ranking.json"
	resultsFile = "results.md"
	taskFile    = "task.json"
)

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Store manages run directories under a single base directory.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir. The directory is created on
// first run creation, not here.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Run is an open handle to one run directory.
type Run struct {
	Name string
	Path string
}

// Slug converts a free-text topic into a filesystem-safe directory suffix.
func Slug(topic string) string {
	slug := strings.ToLower(strings.TrimSpace(topic))
	slug = nonSlugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreateRun creates the directory tree for a new run named
// {date}-{topic-slug}. Returns a *DuplicateRunError if the directory already
// exists; an existing run is never merged into.
func (s *Store) CreateRun(topic string, now time.Time) (*Run, error) {
	slug := Slug(topic)
	if slug == "" {
		return nil, fmt.Errorf("topic produces an empty directory name: %q", topic)
	}

	name := fmt.Sprintf("%s-%s", now.Format("2006-01-02"), slug)
	path := filepath.Join(s.baseDir, name)

	if _, err := os.Stat(path); err == nil {
		return nil, &DuplicateRunError{Path: path}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check run directory: %w", err)
	}

	for _, sub := range []string{designsDir, reviewsDir, scoresDir, resultsDir} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	}

	return &Run{Name: name, Path: path}, nil
}

// OpenRun opens an existing run directory by name.
func (s *Store) OpenRun(name string) (*Run, error) {
	path := filepath.Join(s.baseDir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("run '%s' not found in %s: %w", name, s.baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("run '%s' is not a directory", name)
	}
	return &Run{Name: name, Path: path}, nil
}

// ListRuns returns the names of all run directories, newest first by name.
// Date-prefixed names make lexical order chronological.
func (s *Store) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// DesignsRoot returns the protected root the isolation guard watches during
// generation.
func (r *Run) DesignsRoot() string {
	return filepath.Join(r.Path, designsDir)
}

// WriteTask persists the original request parameters as task.json.
func (r *Run) WriteTask(task Task) error {
	return r.writeJSON(filepath.Join(r.Path, taskFile), task)
}

// WriteDesign persists a validated design artifact and returns its path.
func (r *Run) WriteDesign(artifact DesignArtifact) (string, error) {
	if err := artifact.Validate(); err != nil {
		return "", err
	}
	path := filepath.Join(r.Path, designsDir, artifact.ID+".json")
	if err := r.writeJSON(path, artifact); err != nil {
		return "", err
	}
	return path, nil
}

// LoadDesign reads one design artifact back by candidate ID.
func (r *Run) LoadDesign(candidateID string) (*DesignArtifact, error) {
	var artifact DesignArtifact
	path := filepath.Join(r.Path, designsDir, candidateID+".json")
	if err := r.readJSON(path, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// WriteReview persists one reviewer's qualitative review of one candidate.
func (r *Run) WriteReview(candidateID string, review ranking.Review) error {
	name := fmt.Sprintf("review-%s-%s.json", candidateID, review.Model)
	return r.writeJSON(filepath.Join(r.Path, reviewsDir, name), review)
}

// WriteScores persists one reviewer's raw scores for one candidate.
func (r *Run) WriteScores(candidateID, model string, scores []scoring.Score) error {
	name := fmt.Sprintf("score-%s-%s.json", candidateID, model)
	return r.writeJSON(filepath.Join(r.Path, scoresDir, name), scores)
}

// WriteRanking persists the final ranking as results/ranking.json.
func (r *Run) WriteRanking(entries []ranking.Entry) error {
	return r.writeJSON(filepath.Join(r.Path, resultsDir, rankingFile), entries)
}

// LoadRanking reads the final ranking back. Round-trips losslessly with
// WriteRanking for all numeric and string fields.
func (r *Run) LoadRanking() ([]ranking.Entry, error) {
	var entries []ranking.Entry
	if err := r.readJSON(filepath.Join(r.Path, resultsDir, rankingFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteResults persists the human-readable summary as results/results.md.
func (r *Run) WriteResults(topic string, entries []ranking.Entry, failures []Failure) error {
	report := renderResults(topic, entries, failures)
	path := filepath.Join(r.Path, resultsDir, resultsFile)
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", resultsFile, err)
	}
	return nil
}

func (r *Run) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (r *Run) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
