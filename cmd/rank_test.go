package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/spigell/cv-ranker/internal/model"
)

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	alice := write("alice.txt", "Alice")
	write("bob.md", "Bob")
	write(".hidden", "skip me")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	docs, err := loadDocuments([]string{dir, alice})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d: %+v", len(docs), docs)
	}
	names := map[string]string{}
	for _, doc := range docs {
		names[doc.Name] = doc.Content
	}
	if names["alice"] != "Alice" || names["bob"] != "Bob" {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	if _, err := loadDocuments([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestOverridesFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringToString("weights", nil, "")
	cmd.Flags().Float64("min-total-score", 0, "")
	cmd.Flags().Float64("min-success-ratio", 0, "")

	if got := overridesFromFlags(cmd); len(got) != 0 {
		t.Fatalf("expected no overrides without flags, got %v", got)
	}

	if err := cmd.Flags().Parse([]string{"--weights", "skills=0.6,experience=0.4", "--min-total-score", "40"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := overridesFromFlags(cmd)
	weights, ok := got["weights"].(map[string]any)
	if !ok || weights["skills"] != "0.6" || weights["experience"] != "0.4" {
		t.Fatalf("unexpected weights override: %v", got["weights"])
	}
	if got["min-total-score"] != 40.0 {
		t.Fatalf("unexpected min-total-score: %v", got["min-total-score"])
	}
	if _, ok := got["min-success-ratio"]; ok {
		t.Fatalf("unset flags must not become overrides")
	}
}

func TestPrintSnapshot(t *testing.T) {
	snapshot := &model.JobSnapshot{
		ID:    "job-1",
		State: model.StateCompleted,
		Result: &model.JobResult{
			Ranked: []model.RankedCandidate{{
				CandidateScore: model.CandidateScore{CandidateID: "a", CandidateName: "Ada", Total: 91.5},
				Rank:           1,
				Tier:           model.TierA,
			}},
			Filtered: []model.RankedCandidate{{
				CandidateScore: model.CandidateScore{CandidateID: "b", Total: 40},
				Tier:           model.TierD,
				FilterReason:   "below_minimum_experience",
			}},
			Excluded:         []model.CandidateFailure{{CandidateID: "c", Stage: "extraction", Reason: "timeout"}},
			TierDistribution: map[model.Tier]int{model.TierA: 1},
			Filters: []model.FilterReport{
				{Name: "minimum_experience", Enabled: true, Initial: 2, Dropped: 1, Left: 1},
				{Name: "minimum_score", Reason: "minimum total score is not configured"},
			},
			Anomalies:        []string{"scoring weights sum to 2.5000, normalized to 1.0"},
		},
	}

	var table bytes.Buffer
	if err := printSnapshot(&table, snapshot, outputTable); err != nil {
		t.Fatalf("print table: %v", err)
	}
	for _, want := range []string{"Ada (a)", "91.5", "below_minimum_experience", "timeout", "A=1", "anomaly: scoring weights", "disabled: minimum total score"} {
		if !strings.Contains(table.String(), want) {
			t.Fatalf("table output misses %q:\n%s", want, table.String())
		}
	}

	var out bytes.Buffer
	if err := printSnapshot(&out, snapshot, outputJSON); err != nil {
		t.Fatalf("print json: %v", err)
	}
	var decoded model.JobSnapshot
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if decoded.ID != "job-1" || len(decoded.Result.Ranked) != 1 {
		t.Fatalf("unexpected json output: %s", out.String())
	}
}
