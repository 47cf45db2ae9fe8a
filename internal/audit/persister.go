package audit

import (
	"encoding/json"
	"fmt"

	"github.com/lumenquant/tradecore/internal/database"
)

const ledgerSchema = `
CREATE TABLE audit_records (
	sequence INTEGER PRIMARY KEY,
	time_unix_nano INTEGER NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL
);
`

// Persister durably appends audit records to a SQLite-backed ledger using
// database.ProfileLedger. It is the only durability hook in the system:
// the engine's in-memory state is entirely reconstructable by replaying
// this ledger through a Replica.
type Persister struct {
	db *database.DB
}

// NewPersister opens (or reuses) a ledger database at path and applies its
// schema. Safe to call once per process at startup.
func NewPersister(path string) (*Persister, error) {
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileLedger,
		Name:    "audit-ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open ledger: %w", err)
	}
	if err := db.ApplySchema(ledgerSchema); err != nil {
		return nil, fmt.Errorf("audit: failed to apply ledger schema: %w", err)
	}
	return &Persister{db: db}, nil
}

// Persist appends one record to the ledger. Called synchronously from a
// dedicated subscriber goroutine fed by Stream.Subscribe, never from the
// engine loop itself, so a slow disk cannot stall event processing beyond
// the subscriber channel's buffer.
func (p *Persister) Persist(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal record %d: %w", rec.Sequence, err)
	}
	_, err = p.db.Exec(
		`INSERT INTO audit_records (sequence, time_unix_nano, kind, payload) VALUES (?, ?, ?, ?)`,
		rec.Sequence, rec.Time.UnixNano(), string(rec.Diff.Kind), string(payload),
	)
	if err != nil {
		return fmt.Errorf("audit: failed to persist record %d: %w", rec.Sequence, err)
	}
	return nil
}

// Run drains records from ch, persisting each in turn, until the channel
// closes. Meant to run in its own goroutine, fed by Stream.Subscribe.
func (p *Persister) Run(ch <-chan Record) error {
	for rec := range ch {
		if err := p.Persist(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (p *Persister) Close() error {
	return p.db.Close()
}
