package health

import "context"

// DBPinger checks availability of the optional key-value store backing
// the embedding cache and persistent dedup.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider chain.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
