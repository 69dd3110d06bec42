package search

// Match is one ranked index record.
type Match struct {
	Name  string  `json:"name"`
	Href  string  `json:"href"`
	Score float64 `json:"score"`

	// Position is the record's index position, used to break score ties.
	Position int `json:"-"`
}

// Options controls ranking.
type Options struct {
	// Threshold is exclusive: only scores strictly above it are kept.
	Threshold float64
	// TopK caps the result count. Values <= 0 mean no cap.
	TopK int
	// ShardSize is the number of records scored per goroutine. Zero uses
	// DefaultShardSize; indexes no larger than one shard are scored inline.
	ShardSize int
}

const (
	DefaultThreshold = 0.3
	DefaultTopK      = 3
	DefaultShardSize = 4096
)

// DefaultOptions returns the ranking policy used when nothing is configured.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, TopK: DefaultTopK}
}
