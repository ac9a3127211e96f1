package queue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/consts"
)

const listingOutput = "-Queue ID- --Size-- ----Arrival Time---- -Sender/Recipient-------\n" +
	"C0004979687     4769 Tue Apr 29 06:35:05  sender@domain.com\n" +
	"(connection timed out)\n" +
	"                                         rcpt@remote.org\n" +
	"\n" +
	"B0003226BF8*     2344 Mon Apr 28 13:18:10  other@domain.com\n" +
	"                                         one@remote.org\n" +
	"\n" +
	"-- 7 Kbytes in 2 Requests.\n"

func testQueueConfig(t *testing.T) *config.QueueConfig {
	t.Helper()
	cfg := config.NewDefaultConfig()
	return &cfg.Queue
}

func TestLoadFromListing(t *testing.T) {
	runner := &stubRunner{listing: listingOutput}
	store := NewStore(testQueueConfig(t), runner)

	require.NoError(t, store.Load(context.Background(), LoadFromListing))
	require.Len(t, store.Records(), 2)
	assert.False(t, store.LoadedAt().IsZero())

	// Header and footer lines never reach the parser.
	assert.Equal(t, "C0004979687", store.Records()[0].ID)
	assert.Equal(t, "B0003226BF8", store.Records()[1].ID)
	assert.Equal(t, []string{"/usr/sbin/postqueue", "-p"}, runner.lastCmd)
}

func TestLoadReplacesSnapshot(t *testing.T) {
	runner := &stubRunner{listing: listingOutput}
	store := NewStore(testQueueConfig(t), runner)

	require.NoError(t, store.Load(context.Background(), LoadFromListing))
	require.Len(t, store.Records(), 2)
	first := store.LoadedAt()

	runner.listing = "-Queue ID- --Size-- ----Arrival Time---- -Sender/Recipient-------\n" +
		"A9C1D44E21!     512 Tue Apr 29 01:02:03  third@domain.com\n" +
		"\n" +
		"-- 1 Kbytes in 1 Request.\n"

	require.NoError(t, store.Load(context.Background(), LoadFromListing))
	require.Len(t, store.Records(), 1)
	assert.Equal(t, "A9C1D44E21", store.Records()[0].ID)
	assert.False(t, store.LoadedAt().Before(first))
}

func TestLoadEmptyQueue(t *testing.T) {
	runner := &stubRunner{listing: "Mail queue is empty\n"}
	store := NewStore(testQueueConfig(t), runner)

	require.NoError(t, store.Load(context.Background(), LoadFromListing))
	assert.Empty(t, store.Records())
}

func TestLoadListingCommandFailure(t *testing.T) {
	runner := &stubRunner{outputErr: consts.ErrCommandFailed}
	store := NewStore(testQueueConfig(t), runner)

	err := store.Load(context.Background(), LoadFromListing)
	require.ErrorIs(t, err, consts.ErrCommandFailed)
	assert.Empty(t, store.Records())
	assert.True(t, store.LoadedAt().IsZero())
}

func TestLoadUnknownStrategy(t *testing.T) {
	store := NewStore(testQueueConfig(t), &stubRunner{})
	err := store.Load(context.Background(), LoadStrategy(42))
	require.ErrorIs(t, err, consts.ErrUnknownStrategy)
}

func TestLoadFromSpool(t *testing.T) {
	spool := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(spool, "deferred", "C"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(spool, "hold"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "deferred", "C", "C0004979687"), nil, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "hold", "A9C1D44E21"), nil, 0600))

	content := "message_size: 4769 200 1 0 4769\n" +
		"create_time: Tue Apr 29 06:35:05 2025\n" +
		"sender: sender@domain.com\n" +
		"regular_text: Subject: hello\n" +
		"regular_text: From: sender@domain.com\n" +
		"regular_text: \n" +
		"regular_text: body\n"

	cfg := testQueueConfig(t)
	cfg.SpoolPath = spool
	cfg.Statuses = []string{"active", "deferred", "hold"}

	runner := &stubRunner{content: map[string]string{
		"C0004979687": content,
		"A9C1D44E21":  content,
	}}
	store := NewStore(cfg, runner)

	require.NoError(t, store.Load(context.Background(), LoadFromSpool))
	require.Len(t, store.Records(), 2)

	// Status comes from the spool directory, the rest from the
	// resolved content.
	deferred := store.Records()[0]
	assert.Equal(t, "C0004979687", deferred.ID)
	assert.Equal(t, StatusDeferred, deferred.Status)
	assert.Equal(t, int64(4769), deferred.Size)
	assert.Equal(t, "sender@domain.com", deferred.Sender)
	assert.True(t, deferred.ContentResolved)
	assert.Equal(t, []string{"hello"}, deferred.Headers["Subject"])

	held := store.Records()[1]
	assert.Equal(t, "A9C1D44E21", held.ID)
	assert.Equal(t, StatusHold, held.Status)
}

func TestLoadFromSpoolKeepsUnresolvableRecords(t *testing.T) {
	spool := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(spool, "deferred"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "deferred", "C0004979687"), nil, 0600))

	cfg := testQueueConfig(t)
	cfg.SpoolPath = spool
	cfg.Statuses = []string{"deferred"}

	runner := &stubRunner{outputErr: consts.ErrCommandFailed}
	store := NewStore(cfg, runner)

	require.NoError(t, store.Load(context.Background(), LoadFromSpool))
	require.Len(t, store.Records(), 1)

	rec := store.Records()[0]
	assert.Equal(t, "C0004979687", rec.ID)
	assert.False(t, rec.ContentResolved)
	assert.NotEmpty(t, rec.ResolveError)
}
