// Package vectorstore keeps a persistent embedding index of note content so
// the agent's search_notes tool can retrieve by meaning rather than keyword.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// SearchResult is a single semantic-search hit.
type SearchResult struct {
	NoteUID string
	Content string
	Score   float32
}

// Store wraps chromem-go with per-user collections and disk persistence.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	dataDir string
	embedFn chromem.EmbeddingFunc
}

// New creates (or opens) the persistent vector store at dataDir/vectorstore/.
// embedFunc is typically chromem.NewEmbeddingFuncOpenAICompat pointed at the
// configured AI provider's embeddings endpoint.
func New(dataDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create vectorstore dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vectorstore: %w", err)
	}
	return &Store{db: db, dataDir: dir, embedFn: embedFunc}, nil
}

func collectionName(userID int32) string {
	return fmt.Sprintf("user_%d_notes", userID)
}

func (s *Store) getOrCreateCollection(userID int32) *chromem.Collection {
	name := collectionName(userID)
	col := s.db.GetCollection(name, s.embedFn)
	if col == nil {
		var err error
		col, err = s.db.CreateCollection(name, nil, s.embedFn)
		if err != nil {
			slog.Error("failed to create vector collection", "user", userID, "err", err)
			return nil
		}
	}
	return col
}

// UpsertNote indexes (or re-indexes) a note for a user. title travels as
// metadata so hits can be rendered without a second store lookup.
func (s *Store) UpsertNote(ctx context.Context, userID int32, noteUID, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.getOrCreateCollection(userID)
	if col == nil {
		return fmt.Errorf("vectorstore: nil collection for user %d", userID)
	}

	doc := chromem.Document{
		ID:      noteUID,
		Content: content,
		Metadata: map[string]string{
			"title": title,
		},
	}
	return col.AddDocument(ctx, doc)
}

// RemoveNote drops a note from the user's index. Missing documents are not
// an error; a soft-deleted note may never have been indexed.
func (s *Store) RemoveNote(ctx context.Context, userID int32, noteUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.db.GetCollection(collectionName(userID), s.embedFn)
	if col == nil {
		return nil
	}
	return col.Delete(ctx, nil, nil, noteUID)
}

// SearchSimilar returns the top-k notes most semantically similar to the query.
func (s *Store) SearchSimilar(ctx context.Context, userID int32, query string, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.getOrCreateCollection(userID)
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	var results []chromem.Result
	var err error

	// chromem-go sometimes throws "nResults must be <= number of documents"
	// despite the Count check above. Step down k if it fails.
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = col.Query(ctx, query, attemptK, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			NoteUID: r.ID,
			Content: r.Content,
			Score:   r.Similarity,
		})
	}
	return out, nil
}
