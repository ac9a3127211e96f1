// Package queue inspects and filters the contents of a Postfix mail
// queue. It parses queue listings into records, keeps them in a
// reloadable in-memory snapshot, narrows them through a replayable
// filter pipeline and submits selections to the queue administration
// command.
package queue

import (
	"regexp"
	"time"
)

// Status is the Postfix queue status of a message.
type Status string

const (
	StatusActive   Status = "active"
	StatusHold     Status = "hold"
	StatusDeferred Status = "deferred"
)

// Queue ids are 10 to 12 uppercase hexadecimal characters. In listing
// output the id may carry a trailing status marker: "*" for active,
// "!" for hold.
var queueIDRegex = regexp.MustCompile(`^[A-F0-9]{10,12}[*!]?$`)

// IsQueueID reports whether token is a queue id, with or without a
// trailing status marker.
func IsQueueID(token string) bool {
	return queueIDRegex.MatchString(token)
}

// SplitQueueID strips the status marker from a queue id token and
// returns the bare id together with the status it encodes. Tokens
// without a marker are deferred.
func SplitQueueID(token string) (string, Status) {
	if n := len(token); n > 0 {
		switch token[n-1] {
		case '*':
			return token[:n-1], StatusActive
		case '!':
			return token[:n-1], StatusHold
		}
	}
	return token, StatusDeferred
}

// Record is one queued message as seen by Postfix. A record is created
// during snapshot parsing (or spool scanning), grows recipients and
// delivery errors while its listing block is consumed, and gains
// headers when explicitly resolved against the queue file content.
// Records are replaced wholesale when their snapshot is reloaded.
type Record struct {
	ID     string
	Status Status

	// Size is the message size in bytes; 0 means unknown, not yet
	// resolved.
	Size int64

	// ReceivedAt is the arrival time; the zero value means unknown.
	ReceivedAt time.Time

	Sender string

	// Recipients in order of appearance in the listing. Addresses that
	// fail validation are never stored. Duplicates are kept.
	Recipients []string

	// DeliveryErrors are associated with the record as a whole, not with
	// individual recipients. The listing format does not expose which
	// recipient produced which error.
	DeliveryErrors []string

	// Headers maps header names (case preserved) to their values in
	// message order. Empty until the record has been resolved.
	Headers map[string][]string

	// ContentResolved is set once headers and remaining queue fields
	// have been populated from the queue file content.
	ContentResolved bool

	// ResolveError holds the last content resolution failure, if any.
	ResolveError string
}

// NewRecord builds a record from a raw queue id token, interpreting and
// stripping its status marker.
func NewRecord(token string) *Record {
	id, status := SplitQueueID(token)
	return &Record{
		ID:     id,
		Status: status,
	}
}

// Dump is a structured view of a record, split into the fields gathered
// from the queue listing and the headers gathered from the resolved
// content.
type Dump struct {
	ID              string
	Status          Status
	Size            int64
	ReceivedAt      time.Time
	Sender          string
	Recipients      []string
	DeliveryErrors  []string
	ContentResolved bool
	ResolveError    string
	Headers         map[string][]string
}

// Dump returns the record's gathered information. Headers are empty
// unless the record has been resolved.
func (r *Record) Dump() Dump {
	d := Dump{
		ID:              r.ID,
		Status:          r.Status,
		Size:            r.Size,
		ReceivedAt:      r.ReceivedAt,
		Sender:          r.Sender,
		Recipients:      append([]string(nil), r.Recipients...),
		DeliveryErrors:  append([]string(nil), r.DeliveryErrors...),
		ContentResolved: r.ContentResolved,
		ResolveError:    r.ResolveError,
		Headers:         make(map[string][]string, len(r.Headers)),
	}
	for name, values := range r.Headers {
		d.Headers[name] = append([]string(nil), values...)
	}
	return d
}
