package cloudprovider

import (
	"context"
	"fmt"
)

// AutomaticTTL is the TTL value the provider interprets as "automatic".
const AutomaticTTL = 1

const (
	TypeA    = "A"
	TypeAAAA = "AAAA"
)

type Record struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// IsAddress reports whether the record is an A or AAAA record.
func (r Record) IsAddress() bool {
	return r.Type == TypeA || r.Type == TypeAAAA
}

type Provider interface {
	// ListDNSRecords returns every record of the zone in provider order.
	ListDNSRecords(ctx context.Context, zoneID string) ([]Record, error)
	// UpdateDNSRecord rewrites the content of record, keeping its type, name
	// and proxied flag and forcing the TTL to AutomaticTTL.
	UpdateDNSRecord(ctx context.Context, zoneID string, record Record, content string) error
}

// APIError is returned when the provider answers with a non-success status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider api returned status %d: %s", e.Status, e.Body)
}
