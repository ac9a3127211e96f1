package queue

import (
	"strconv"
	"strings"
	"time"

	"github.com/mailops/postq/helpers"
	"github.com/mailops/postq/logger"
	"github.com/mailops/postq/pkg/metrics"
)

// The listing omits the year, so dates are parsed against the current
// year and corrected when they land in the future.
const listingDateLayout = "Mon Jan 2 15:04:05 2006"

// SnapshotParser turns raw queue listing text into an ordered sequence
// of records. Parsing is a single left-to-right pass whose only state is
// the record currently being filled; malformed lines are dropped, never
// reported as errors.
type SnapshotParser struct {
	// now is the reference time for year-rollover correction.
	// Overridden in tests.
	now func() time.Time
}

// NewSnapshotParser returns a parser using the wall clock.
func NewSnapshotParser() *SnapshotParser {
	return &SnapshotParser{now: time.Now}
}

// Parse consumes a queue listing, with the listing command's own header
// and footer lines already stripped, and returns one record per queued
// message. Sample input:
//
//	C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com
//	(error message from mx.remote1.org with parenthesis)
//	                                         first.rcpt@remote1.org
//	(error message from mx.remote2.org with parenthesis)
//	                                         second.rcpt@remote2.org
//	                                         third.rcpt@remote2.org
//
// A line whose first token is a queue id starts a new record; a line
// starting with "(" appends a delivery error to the current record; any
// other non-blank line is a recipient candidate for the current record,
// stored only if it validates as an email address.
func (p *SnapshotParser) Parse(raw string) []*Record {
	var records []*Record
	var current *Record

	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)

		// Records are blank line separated
		if len(fields) == 0 {
			continue
		}

		if fields[0][0] == '(' {
			// Delivery error annotation, stored without the enclosing
			// parentheses. Without a current record the annotation is
			// orphaned and dropped.
			if current == nil {
				metrics.ParserDroppedLines.Inc()
				continue
			}
			text := strings.Join(fields, " ")
			text = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
			current.DeliveryErrors = append(current.DeliveryErrors, text)
			continue
		}

		if IsQueueID(fields[0]) {
			current = p.parseRecordLine(fields)
			records = append(records, current)
			continue
		}

		// Anything else is a recipient continuation for the current
		// record.
		addr := strings.Join(fields, " ")
		if current == nil || !helpers.IsEmailAddress(addr) {
			metrics.ParserDroppedLines.Inc()
			continue
		}
		current.Recipients = append(current.Recipients, addr)
	}

	return records
}

// parseRecordLine builds a record from a listing line of the form
//
//	<id> <size> <weekday> <month> <day> <time> <sender>
//
// A truncated line still yields a record carrying the id and status;
// the remaining fields stay unresolved.
func (p *SnapshotParser) parseRecordLine(fields []string) *Record {
	rec := NewRecord(fields[0])
	if len(fields) < 7 {
		logger.Debug("Short record line, keeping id only", "id", rec.ID, "fields", len(fields))
		metrics.ParserDroppedLines.Inc()
		return rec
	}

	rec.Sender = fields[len(fields)-1]

	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		logger.Debug("Unparseable size in record line", "id", rec.ID, "size", fields[1])
	} else {
		rec.Size = size
	}

	// The listing has no year column. Assume the message arrived this
	// year; a date in the future means it arrived last year (or the
	// clock is off), so move it back exactly 365 days.
	now := p.now()
	datestr := strings.Join(fields[2:len(fields)-1], " ") + " " + strconv.Itoa(now.Year())
	date, err := time.ParseInLocation(listingDateLayout, datestr, now.Location())
	if err != nil {
		logger.Debug("Unparseable date in record line", "id", rec.ID, "date", datestr)
		return rec
	}
	if date.After(now) {
		date = date.Add(-365 * 24 * time.Hour)
	}
	rec.ReceivedAt = date

	return rec
}
