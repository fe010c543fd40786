package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const questRules = `
ruleset: quests
version: 1
rules:
  - id: open_chest
    priority: 10
    requires:
      - flag: world.$actor.has_key
    effects:
      - set: {path: world.chest.opened, value: true}
invariants:
  - bounds: {path: world.*.hp, min: 0, max: 100}
`

const combatRules = `
ruleset: combat
version: 1
rules:
  - id: strike
    effects:
      - add: {path: world.$target.hp, value: -5}
`

func writeRuleFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func TestFileSourceLoadSingleFile(t *testing.T) {
	path := writeRuleFile(t, t.TempDir(), "quests.yaml", questRules)
	src := NewFileSource(path, nil)

	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	if docs[0].Ruleset != "quests" || len(docs[0].Rules) != 1 || len(docs[0].Invariants) != 1 {
		t.Errorf("document = {%q, %d rules, %d invariants}",
			docs[0].Ruleset, len(docs[0].Rules), len(docs[0].Invariants))
	}
}

func TestFileSourceLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "quests.yaml", questRules)
	writeRuleFile(t, dir, "combat.yml", combatRules)
	writeRuleFile(t, dir, "notes.txt", "not a rule file")

	docs, err := NewFileSource(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2 (.txt must be skipped)", len(docs))
	}

	rulesets := map[string]bool{}
	for _, doc := range docs {
		rulesets[doc.Ruleset] = true
	}
	if !rulesets["quests"] || !rulesets["combat"] {
		t.Errorf("rulesets = %v", rulesets)
	}
}

func TestFileSourceBadFileFailsWholeLoad(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "quests.yaml", questRules)
	writeRuleFile(t, dir, "broken.yaml", "rules: [{id: ")

	docs, err := NewFileSource(dir, nil).Load(context.Background())
	if err == nil {
		t.Fatal("Load() succeeded with a broken file in the directory")
	}
	if docs != nil {
		t.Errorf("docs = %v, want nil on a failed load", docs)
	}
}

func TestFileSourceMissingPath(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("Load() succeeded on a missing path")
	}
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource()

	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("documents = %d, want 0", len(docs))
	}

	// Reuse the file loader to build a real document.
	path := writeRuleFile(t, t.TempDir(), "quests.yaml", questRules)
	loaded, err := NewFileSource(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	src.SetDocuments(loaded)
	docs, err = src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Ruleset != "quests" {
		t.Errorf("documents = %+v", docs)
	}
}
