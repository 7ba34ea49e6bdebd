package export

import (
	"fmt"
	"strings"

	"assetlib/internal/identity"
	"assetlib/internal/sequence"
	"assetlib/internal/services"
	"assetlib/internal/services/ingest"
)

// IssueKind classifies an issue reported by an export.
type IssueKind string

const (
	IssueValidation    IssueKind = IssueKind(services.KindValidation)
	IssueNotFound      IssueKind = IssueKind(services.KindNotFound)
	IssueCollision     IssueKind = IssueKind(services.KindCollision)
	IssueConfiguration IssueKind = IssueKind(services.KindConfiguration)
	IssueFileIO        IssueKind = IssueKind(services.KindFileIO)
	IssueIngestion     IssueKind = IssueKind(services.KindIngestion)
	IssueInternal      IssueKind = IssueKind(services.KindInternal)
	IssueReference     IssueKind = "reference"
	IssueUnresolved    IssueKind = "unresolved"
	IssueRemap         IssueKind = "remap"
)

// Issue is one machine-readable warning or error.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
}

// Result is what every export call returns.
type Result struct {
	Success      bool              `json:"success"`
	Status       string            `json:"status"`
	Issues       []Issue           `json:"issues"`
	Identity     identity.Identity `json:"identity"`
	AssetID      string            `json:"asset_id,omitempty"`
	AssetDir     string            `json:"asset_dir,omitempty"`
	MetadataPath string            `json:"metadata_path,omitempty"`
	PathsFile    string            `json:"paths_file,omitempty"`
	FilesCopied  int               `json:"files_copied"`
	RemapCount   int               `json:"remap_count"`
	Rewritten    int               `json:"rewritten"`
	FrameRange   sequence.Range    `json:"frame_range"`
	Ingestion    ingest.Outcome    `json:"ingestion"`
	RunID        string            `json:"run_id"`
}

func (r *Result) addIssue(kind IssueKind, stage, message, path string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Stage: stage, Message: message, Path: path})
}

// fail records a fatal error and sets the status line.
func (r *Result) fail(stage string, err error) *Result {
	kind := IssueKind(services.KindOf(err))
	r.Success = false
	r.addIssue(kind, stage, err.Error(), "")
	r.Status = fmt.Sprintf("export failed during %s: %s", stage, kind)
	return r
}

// IssuesOf returns the issues of the given kind.
func (r *Result) IssuesOf(kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Result) summarize() {
	var b strings.Builder
	fmt.Fprintf(&b, "exported %s (%d files, %d remapped)", r.AssetID, r.FilesCopied, r.RemapCount)
	if n := len(r.Issues); n > 0 {
		fmt.Fprintf(&b, " with %d warning", n)
		if n > 1 {
			b.WriteString("s")
		}
	}
	if r.Ingestion.Status != "" && r.Ingestion.Status != ingest.StatusSkipped {
		fmt.Fprintf(&b, "; ingestion %s", r.Ingestion.Status)
	}
	r.Status = b.String()
}
