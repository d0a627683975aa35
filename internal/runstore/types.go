package runstore

import "fmt"

// DesignArtifact is one generated design proposal. Immutable once written;
// identified by ID within the run.
type DesignArtifact struct {
	ID          string `json:"id"`
	GeneratedBy string `json:"generated_by"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Content     string `json:"content"`
}

// SchemaValidationError reports a generated artifact that failed structural
// validation. Recorded per model; generation continues for other models.
type SchemaValidationError struct {
	Model  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("design from '%s' failed validation: %s", e.Model, e.Reason)
}

// Validate checks the artifact has the fields every downstream phase relies
// on. Returns a *SchemaValidationError on failure.
func (a *DesignArtifact) Validate() error {
	if a.ID == "" {
		return &SchemaValidationError{Model: a.GeneratedBy, Reason: "missing id"}
	}
	if a.GeneratedBy == "" {
		return &SchemaValidationError{Model: a.GeneratedBy, Reason: "missing generated_by"}
	}
	if a.Content == "" {
		return &SchemaValidationError{Model: a.GeneratedBy, Reason: "missing content"}
	}
	return nil
}

// Task records the original request parameters for a run, persisted as
// task.json so a run directory is self-describing.
type Task struct {
	Topic      string   `json:"topic"`
	Prompt     string   `json:"prompt,omitempty"`
	Generators []string `json:"generators"`
	Reviewers  []string `json:"reviewers,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

// Failure records one non-fatal per-model error so partial runs stay
// explainable. Design identifies the candidate being worked on, so two
// failures by the same reviewer on different designs stay distinguishable.
type Failure struct {
	Model   string `json:"model"`
	Phase   string `json:"phase"`
	Design  string `json:"design,omitempty"`
	Message string `json:"message"`
}

// DuplicateRunError is fatal for the whole run: an existing directory is
// never merged into or overwritten.
type DuplicateRunError struct {
	Path string
}

func (e *DuplicateRunError) Error() string {
	return fmt.Sprintf("run directory already exists: %s (remove it or change the topic)", e.Path)
}
