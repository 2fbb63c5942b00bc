package store

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the data source name: a file path for SQLite, a
	// postgres:// URL for PostgreSQL.
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithDSN sets the data source name for the store.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
