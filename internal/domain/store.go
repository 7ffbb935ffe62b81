package domain

// Kind names a persisted record.
type Kind string

const (
	KindUsers      Kind = "users"
	KindPortfolios Kind = "portfolios"
	KindRates      Kind = "rates"
	KindSession    Kind = "session"
)

// Gateway durable storage for whole records.
// Load returns nil payload and nil error when the record does not exist yet.
// Save must replace the record atomically.
type Gateway interface {
	Load(kind Kind) ([]byte, error)
	Save(kind Kind, payload []byte) error
	Delete(kind Kind) error
}
