package filter

import "time"

// AuditSink receives one entry per excluded article. Failures are logged and
// otherwise ignored; they never change what gets filtered.
type AuditSink interface {
	Record(entry BlockedEntry) error
}

// BlockedEntry is the audit record for an excluded article.
type BlockedEntry struct {
	Reason    string         `json:"reason"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	URI       string         `json:"uri"`
	Source    string         `json:"source"`
	Details   BlockedDetails `json:"details"`
	BlockedAt time.Time      `json:"blocked_at"`
}

type BlockedDetails struct {
	UnwantedCryptosFound []string `json:"unwanted_cryptos_found"`
}

// NopSink discards every entry.
type NopSink struct{}

func (NopSink) Record(BlockedEntry) error { return nil }

// SinkFunc adapts a function to AuditSink.
type SinkFunc func(BlockedEntry) error

func (fn SinkFunc) Record(e BlockedEntry) error { return fn(e) }
