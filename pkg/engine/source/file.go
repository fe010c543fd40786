package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"questforge/apcore/pkg/rules/parser"
)

// FileSource loads rule documents from YAML files on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based rule source. The path can be either
// a single file or a directory; a directory loads all .yaml and .yml
// files in it.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "source.file"),
	}
}

// Path returns the configured path.
func (s *FileSource) Path() string { return s.path }

// Load loads all rule documents from the configured path.
func (s *FileSource) Load(ctx context.Context) ([]*parser.Document, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var docs []*parser.Document
	if info.IsDir() {
		docs, err = s.loadDirectory(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		doc, err := s.loadFile(s.path)
		if err != nil {
			return nil, err
		}
		docs = []*parser.Document{doc}
	}

	ruleCount := 0
	for _, doc := range docs {
		ruleCount += len(doc.Rules)
	}
	s.logger.Info("loaded rule documents",
		"path", s.path,
		"document_count", len(docs),
		"rule_count", ruleCount,
	)

	return docs, nil
}

// loadDirectory loads every YAML rule file under the directory. A file
// that fails to parse fails the whole load: a partially applied rule set
// is worse than keeping the previous one.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*parser.Document, error) {
	var docs []*parser.Document

	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		doc, err := s.loadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load directory %q: %w", s.path, err)
	}

	return docs, nil
}

// loadFile parses a single rule file.
func (s *FileSource) loadFile(path string) (*parser.Document, error) {
	p := parser.NewParser()
	doc, err := p.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", path, err)
	}

	s.logger.Debug("loaded rule file",
		"path", path,
		"ruleset", doc.Ruleset,
		"rule_count", len(doc.Rules),
		"invariant_count", len(doc.Invariants),
	)

	return doc, nil
}
