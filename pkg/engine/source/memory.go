package source

import (
	"context"
	"sync"

	"questforge/apcore/pkg/rules/parser"
)

// MemorySource is an in-memory rule source for tests and embedded use.
type MemorySource struct {
	mu   sync.RWMutex
	docs []*parser.Document
}

// NewMemorySource creates an in-memory rule source.
func NewMemorySource(docs ...*parser.Document) *MemorySource {
	return &MemorySource{docs: docs}
}

// Load returns the stored documents.
func (s *MemorySource) Load(ctx context.Context) ([]*parser.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*parser.Document, len(s.docs))
	copy(docs, s.docs)
	return docs, nil
}

// SetDocuments replaces the stored documents.
func (s *MemorySource) SetDocuments(docs []*parser.Document) {
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}
