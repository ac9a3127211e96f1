package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParser returns a parser with a fixed reference time so that
// year-rollover behavior is deterministic.
func testParser(now time.Time) *SnapshotParser {
	p := NewSnapshotParser()
	p.now = func() time.Time { return now }
	return p
}

func TestParseSingleRecord(t *testing.T) {
	raw := "C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n" +
		"  (connection timed out)\n" +
		"                                         rcpt@remote.org\n"

	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "C0004979687", rec.ID)
	assert.Equal(t, StatusDeferred, rec.Status)
	assert.Equal(t, int64(4769), rec.Size)
	assert.Equal(t, "sender@domain.com", rec.Sender)
	assert.Equal(t, []string{"connection timed out"}, rec.DeliveryErrors)
	assert.Equal(t, []string{"rcpt@remote.org"}, rec.Recipients)
	assert.Equal(t, time.Date(2025, time.April, 29, 6, 35, 5, 0, time.Local), rec.ReceivedAt)
	assert.False(t, rec.ContentResolved)
}

func TestParseStatusMarkers(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantID     string
		wantStatus Status
	}{
		{"active marker", "C0004979687*", "C0004979687", StatusActive},
		{"hold marker", "C0004979687!", "C0004979687", StatusHold},
		{"no marker", "C0004979687", "C0004979687", StatusDeferred},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.token + "     4769 Tue Apr 29 06:35:05  sender@domain.com\n"
			now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
			records := testParser(now).Parse(raw)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantID, records[0].ID)
			assert.Equal(t, tt.wantStatus, records[0].Status)
		})
	}
}

func TestParseMultipleRecords(t *testing.T) {
	raw := "C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n" +
		"(error message from mx.remote1.org with parenthesis)\n" +
		"                                         first.rcpt@remote1.org\n" +
		"(error message from mx.remote2.org with parenthesis)\n" +
		"                                         second.rcpt@remote2.org\n" +
		"                                         third.rcpt@remote2.org\n" +
		"\n" +
		"B0003226BF8*     2344 Mon Apr 28 13:18:10  MAILER-DAEMON@relay.example.com\n" +
		"                                         postmaster@remote3.org\n"

	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "C0004979687", first.ID)
	// Errors attach to the record as a whole, in listing order.
	assert.Equal(t, []string{
		"error message from mx.remote1.org with parenthesis",
		"error message from mx.remote2.org with parenthesis",
	}, first.DeliveryErrors)
	assert.Equal(t, []string{
		"first.rcpt@remote1.org",
		"second.rcpt@remote2.org",
		"third.rcpt@remote2.org",
	}, first.Recipients)

	second := records[1]
	assert.Equal(t, "B0003226BF8", second.ID)
	assert.Equal(t, StatusActive, second.Status)
	assert.Equal(t, "MAILER-DAEMON@relay.example.com", second.Sender)
	assert.Equal(t, []string{"postmaster@remote3.org"}, second.Recipients)
	assert.Empty(t, second.DeliveryErrors)
}

func TestParseYearRollover(t *testing.T) {
	raw := "C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n"

	// Reference time in January: an April date parsed against the
	// current year lands in the future and is moved back exactly 365
	// days.
	now := time.Date(2025, time.January, 2, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 1)

	parsed := time.Date(2025, time.April, 29, 6, 35, 5, 0, time.Local)
	assert.Equal(t, parsed.Add(-365*24*time.Hour), records[0].ReceivedAt)
}

func TestParseDropsInvalidLines(t *testing.T) {
	raw := "this is not a record line\n" +
		"(orphaned error annotation)\n" +
		"C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n" +
		"not a valid address\n" +
		"rcpt@no-tld\n" +
		"                                         valid.rcpt@remote.org\n"

	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 1)

	// Invalid recipient candidates are silently dropped, never stored.
	assert.Equal(t, []string{"valid.rcpt@remote.org"}, records[0].Recipients)
	assert.Empty(t, records[0].DeliveryErrors)
}

func TestParseDuplicateRecipientsKept(t *testing.T) {
	raw := "C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n" +
		"  rcpt@remote.org\n" +
		"  rcpt@remote.org\n"

	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"rcpt@remote.org", "rcpt@remote.org"}, records[0].Recipients)
}

func TestParseTruncatedRecordLine(t *testing.T) {
	// An id-leading line always starts a record, even when the
	// positional fields are cut off.
	raw := "C0004979687     4769\n" +
		"  rcpt@remote.org\n"

	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	records := testParser(now).Parse(raw)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "C0004979687", rec.ID)
	assert.Zero(t, rec.Size)
	assert.True(t, rec.ReceivedAt.IsZero())
	assert.Equal(t, []string{"rcpt@remote.org"}, rec.Recipients)
}

func TestParseEmptyInput(t *testing.T) {
	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.Local)
	assert.Empty(t, testParser(now).Parse(""))
	assert.Empty(t, testParser(now).Parse("\n\n\n"))
}

func TestIsQueueID(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"C0004979687", true},
		{"C0004979687*", true},
		{"C0004979687!", true},
		{"ABCDEF0123", true},
		{"ABCDEF012345", true},
		{"ABCDEF012", false},     // too short
		{"ABCDEF0123456", false}, // too long
		{"c0004979687", false},   // lowercase
		{"G0004979687", false},   // not hex
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsQueueID(tt.token), "token %q", tt.token)
	}
}
