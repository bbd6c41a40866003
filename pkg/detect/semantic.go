package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// SemanticIndex holds the fixed scam-template corpus in an in-memory vector
// collection. The embedding source is the frozen TF-IDF vectorizer, so the
// whole layer is deterministic, offline, and fit exactly once.
type SemanticIndex struct {
	vectorizer *Vectorizer
	collection *chromem.Collection
	threshold  float64
}

// SemanticMatch is the best template hit for a message.
type SemanticMatch struct {
	Template   string
	Similarity float64
}

// NewSemanticIndex builds the index over the given templates. Templates
// default to the built-in corpus when empty.
func NewSemanticIndex(templates []string) (*SemanticIndex, error) {
	if len(templates) == 0 {
		templates = defaultTemplates
	}

	vectorizer := FitVectorizer(templates)

	db := chromem.NewDB()
	collection, err := db.CreateCollection("scam_templates", nil, vectorizer.EmbeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("failed to create template collection: %w", err)
	}

	docs := make([]chromem.Document, len(templates))
	for i, tpl := range templates {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("template_%d", i),
			Content: tpl,
		}
	}
	// Embedding is local and cheap, one worker keeps ordering deterministic.
	if err := collection.AddDocuments(context.Background(), docs, 1); err != nil {
		return nil, fmt.Errorf("failed to index templates: %w", err)
	}

	return &SemanticIndex{
		vectorizer: vectorizer,
		collection: collection,
		threshold:  semanticThreshold,
	}, nil
}

// Query returns the closest template and its cosine similarity. A text with
// no vocabulary overlap scores 0 against every template and returns a nil
// match without error.
func (si *SemanticIndex) Query(ctx context.Context, text string) (*SemanticMatch, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	results, err := si.collection.Query(ctx, strings.ToLower(text), 1, nil, nil)
	if err != nil {
		if errors.Is(err, ErrNoVocabularyOverlap) {
			return nil, nil
		}
		return nil, fmt.Errorf("template query failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	return &SemanticMatch{
		Template:   best.Content,
		Similarity: float64(best.Similarity),
	}, nil
}

// Threshold returns the similarity cutoff above which the layer fires.
func (si *SemanticIndex) Threshold() float64 { return si.threshold }
