package skills

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Go  ":           "go",
		"Node.js":          "node.js",
		"C++":              "c++",
		"C#":               "c#",
		"CI/CD":            "ci cd",
		"scikit-learn":     "scikit learn",
		"REST   APIs":      "rest apis",
		".NET":             ".net",
		"Kubernetes (k8s)": "kubernetes k8s",
		"":                 "",
	}

	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultCanonical(t *testing.T) {
	table := Default()

	cases := map[string]string{
		"Golang":   "go",
		"k8s":      "kubernetes",
		"Postgres": "postgresql",
		"ReactJS":  "react",
		"AWS":      "amazon web services",
		"Haskell":  "haskell",
	}

	for in, want := range cases {
		if got := table.Canonical(in); got != want {
			t.Fatalf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultRelated(t *testing.T) {
	table := Default()

	if !table.Related("MySQL", "postgres") {
		t.Fatalf("expected mysql and postgres to be related")
	}
	if !table.Related("TypeScript", "js") {
		t.Fatalf("expected typescript and javascript to be related")
	}
	if table.Related("Go", "golang") {
		t.Fatalf("synonyms are an exact match, not related")
	}
	if table.Related("Go", "Kafka") {
		t.Fatalf("unexpected relation between go and kafka")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skills.yaml")
	content := `
synonyms:
  - canonical: erlang
    aliases: [otp]
related:
  - [erlang, elixir]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write table: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := table.Canonical("OTP"); got != "erlang" {
		t.Fatalf("expected erlang, got %q", got)
	}
	if !table.Related("otp", "Elixir") {
		t.Fatalf("expected otp and elixir to be related")
	}
	if table.Canonical("golang") != "golang" {
		t.Fatalf("custom table must not include built-in synonyms")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTokenOverlap(t *testing.T) {
	if got := TokenOverlap("distributed systems design", "design of distributed systems"); got != 1 {
		t.Fatalf("expected full overlap, got %v", got)
	}
	if got := TokenOverlap("machine learning", "learning management"); got != 0.5 {
		t.Fatalf("expected half overlap, got %v", got)
	}
	if got := TokenOverlap("", "anything"); got != 0 {
		t.Fatalf("expected zero overlap for empty target, got %v", got)
	}
}

func TestKnownLongestFirst(t *testing.T) {
	known := Default().Known()
	if len(known) == 0 {
		t.Fatalf("expected known skills")
	}
	for i := 1; i < len(known); i++ {
		if len(known[i]) > len(known[i-1]) {
			t.Fatalf("known skills are not ordered by length at %d: %q after %q", i, known[i], known[i-1])
		}
	}
}
