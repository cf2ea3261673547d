// Package query implements hybrid retrieval over the vector index:
// semantic search plus a lexical pass for monitored targets.
package query

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/index"
)

const (
	// DefaultTopK is used when the caller does not ask for a specific
	// result count.
	DefaultTopK = 10

	// lexicalScanLimit bounds the recency scan of the lexical pass.
	lexicalScanLimit = 500
)

// Result is the evidence set retrieved for a query.
type Result struct {
	Evidence         []domain.Evidence `json:"evidence"`
	InsufficientData bool              `json:"insufficient_data"`
}

// vectorIndex is the service's view of the index (ISP).
type vectorIndex interface {
	Search(query []float32, topK int) ([]index.Hit, error)
	RecentByType(limit int, types ...string) []domain.Document
	Len() int
}

// Service answers retrieval queries. The embedder is expected to be
// the fallback chain, so embedding itself never hard-fails.
type Service struct {
	embedder domain.Embedder
	index    vectorIndex
	logger   *zap.Logger
}

// New creates a query service.
func New(embedder domain.Embedder, ix vectorIndex, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, index: ix, logger: logger}
}

// scored pairs a document with its best similarity across passes.
type scored struct {
	doc domain.Document
	sim float64
}

// Query retrieves evidence for text. When target is a wallet address
// being investigated, documents naming it verbatim are pulled in by a
// lexical pass at similarity 1.0, regardless of vector distance.
// Retrieval problems degrade (lexical-only, or InsufficientData) but
// never surface as errors.
func (s *Service) Query(ctx context.Context, text, target string, topK int) (Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if s.index.Len() == 0 {
		return Result{Evidence: []domain.Evidence{}, InsufficientData: true}, nil
	}

	byID := make(map[string]scored)

	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Query embedding failed, lexical-only retrieval", zap.Error(err))
	} else {
		hits, err := s.index.Search(result.Embedding, topK)
		if err != nil {
			s.logger.Warn("Vector search failed, lexical-only retrieval", zap.Error(err))
		} else {
			for _, hit := range hits {
				merge(byID, hit.Document, hit.Similarity)
			}
		}
	}

	if target != "" {
		// Verbatim mentions of the investigated target outrank any
		// vector distance.
		for _, doc := range s.lexicalMatches(target) {
			merge(byID, doc, 1.0)
		}
	}

	ranked := make([]scored, 0, len(byID))
	for _, sc := range byID {
		ranked = append(ranked, sc)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].doc.Timestamp.After(ranked[j].doc.Timestamp)
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	evidence := make([]domain.Evidence, 0, len(ranked))
	for i := range ranked {
		evidence = append(evidence, domain.EvidenceFromDocument(&ranked[i].doc, ranked[i].sim))
	}

	return Result{
		Evidence:         evidence,
		InsufficientData: len(evidence) == 0,
	}, nil
}

// lexicalMatches scans recent sanction and high-risk documents for a
// verbatim, case-insensitive mention of the target.
func (s *Service) lexicalMatches(target string) []domain.Document {
	want := strings.ToLower(strings.TrimSpace(target))
	if want == "" {
		return nil
	}

	recent := s.index.RecentByType(lexicalScanLimit,
		domain.TypeSanction, domain.TypeRegulatoryUpdate,
		domain.TypeRegulatoryNews, domain.TypeWalletTransaction)

	var matches []domain.Document
	for _, doc := range recent {
		if strings.Contains(strings.ToLower(doc.Text), want) {
			matches = append(matches, doc)
		}
	}
	return matches
}

// merge keeps the highest similarity per document ID.
func merge(byID map[string]scored, doc domain.Document, sim float64) {
	if prev, ok := byID[doc.ID]; ok && prev.sim >= sim {
		return
	}
	byID[doc.ID] = scored{doc: doc, sim: sim}
}
