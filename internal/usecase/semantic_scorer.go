package usecase

import (
	"context"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cartscout/backend/internal/domain"
)

// defaultEmbeddingTimeout bounds a single embedding round-trip so a slow
// provider degrades to the lexical proxy instead of stalling the request.
const defaultEmbeddingTimeout = 5 * time.Second

// SemanticScorer computes embedding-based semantic similarity between a query
// and candidate titles. When the embedder is absent or fails, it degrades to
// a shared-token Jaccard proxy and flags the fallback so callers can tell a
// true semantic score from the substitute.
type SemanticScorer struct {
	embedder domain.Embedder
	timeout  time.Duration
}

// NewSemanticScorer creates a semantic scorer. A nil embedder is valid and
// pins the scorer to the lexical fallback.
func NewSemanticScorer(embedder domain.Embedder, timeout time.Duration) *SemanticScorer {
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	return &SemanticScorer{
		embedder: embedder,
		timeout:  timeout,
	}
}

// Ready reports whether real embeddings back the semantic signal.
func (s *SemanticScorer) Ready() bool {
	return s.embedder != nil
}

// ScoreAll returns one semantic similarity in [0,1] per title. The second
// return value is true when the lexical fallback proxy produced the scores.
func (s *SemanticScorer) ScoreAll(ctx context.Context, query string, titles []string) ([]float64, bool) {
	if len(titles) == 0 {
		return nil, !s.Ready()
	}
	if s.embedder == nil {
		return s.fallbackScores(query, titles), true
	}

	scores, err := s.embeddingScores(ctx, query, titles)
	if err != nil {
		log.Printf("[SEMANTIC] embedding failed, using lexical fallback: %v", err)
		return s.fallbackScores(query, titles), true
	}
	return scores, false
}

// embeddingScores embeds the query once, then each title, and rescales cosine
// similarity from [-1,1] to [0,1].
func (s *SemanticScorer) embeddingScores(ctx context.Context, query string, titles []string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qVec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(titles))
	for i, title := range titles {
		tVec, err := s.embed(ctx, title)
		if err != nil {
			return nil, err
		}
		cos := cosineSimilarity(qVec, tVec)
		scores[i] = (cos + 1.0) / 2.0
	}
	return scores, nil
}

// fallbackScores is the lexical proxy: shared-token Jaccard over word sets.
func (s *SemanticScorer) fallbackScores(query string, titles []string) []float64 {
	scores := make([]float64, len(titles))
	for i, title := range titles {
		scores[i] = jaccardTokens(query, title)
	}
	return scores
}

// embed requests an embedding and converts it to a dense vector.
func (s *SemanticScorer) embed(ctx context.Context, text string) (*mat.VecDense, error) {
	values, err := s.embedder.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec := mat.NewVecDense(len(values), nil)
	for i, v := range values {
		vec.SetVec(i, float64(v))
	}
	return vec, nil
}

// cosineSimilarity computes cosine similarity between two vectors, clipped
// to [-1,1]. Mismatched lengths or zero vectors yield 0.
func cosineSimilarity(a, b *mat.VecDense) float64 {
	if a.Len() != b.Len() || a.Len() == 0 {
		return 0
	}

	dot := mat.Dot(a, b)
	normA := mat.Norm(a, 2)
	normB := mat.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (normA * normB)
	return math.Max(-1.0, math.Min(1.0, cos))
}
