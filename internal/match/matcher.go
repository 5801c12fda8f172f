// Package match implements nearest-neighbour identity lookup over the
// enrolled reference embeddings: a full-collection Euclidean scan with a
// distance threshold and an independent result cap.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/your-org/facewatch/internal/config"
	"github.com/your-org/facewatch/internal/models"
)

// ErrShapeMismatch signals that a query and a reference embedding have
// different lengths. This is a data-integrity problem with that reference,
// not with the batch: the scan skips the identity and keeps going.
var ErrShapeMismatch = errors.New("embedding shape mismatch")

// Candidate is one ranked match.
type Candidate struct {
	IdentityID string  `json:"identity_id"`
	Distance   float64 `json:"distance"`
}

// ReferenceSource provides the current enrolled reference set.
type ReferenceSource interface {
	ListReferences(ctx context.Context) ([]models.Reference, error)
}

// Matcher ranks identities by Euclidean distance to a query embedding.
// Every call reads through to the source, so results always reflect the
// latest enrolled set. O(identities × dim) per call, acceptable for a
// bounded identity count.
type Matcher struct {
	src       ReferenceSource
	threshold float64
	cap       int
}

func NewMatcher(src ReferenceSource, cfg config.MatchingConfig) *Matcher {
	return &Matcher{
		src:       src,
		threshold: cfg.DistanceThreshold,
		cap:       cfg.MaxResults,
	}
}

// Match returns candidates with distance <= threshold, ascending by
// distance, at most cap entries. Shape-mismatched references are skipped
// and reported once per call via the log.
func (m *Matcher) Match(ctx context.Context, query []float32) ([]Candidate, error) {
	refs, err := m.src.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	candidates := make([]Candidate, 0, len(refs))
	mismatched := 0
	for _, ref := range refs {
		d, err := Distance(query, ref.Embedding)
		if err != nil {
			mismatched++
			continue
		}
		if d <= m.threshold {
			candidates = append(candidates, Candidate{IdentityID: ref.IdentityID, Distance: d})
		}
	}
	if mismatched > 0 {
		slog.Warn("skipped references with mismatched embedding shape",
			"count", mismatched, "query_dim", len(query))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > m.cap {
		candidates = candidates[:m.cap]
	}
	return candidates, nil
}

// Distance computes the Euclidean distance between two equal-length
// embeddings. Returns ErrShapeMismatch when the lengths differ.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
