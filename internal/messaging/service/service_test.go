package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/auth/adapter"
	authrepo "crm_backend/internal/auth/repository"
	"crm_backend/internal/events"
	"crm_backend/internal/messaging/repository"
	"crm_backend/internal/messaging/service"
	"crm_backend/internal/messaging/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
)

type fixture struct {
	svc   *service.Service
	bus   *eventstest.Recorder
	alice uuid.UUID
	bob   uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	users := authrepo.New(conn)

	f := fixture{bus: &eventstest.Recorder{}, alice: uuid.New(), bob: uuid.New()}
	for id, name := range map[uuid.UUID]string{f.alice: "alice", f.bob: "bob"} {
		require.NoError(t, users.CreateUser(context.Background(), authrepo.User{
			ID: id, Username: name, PasswordHash: "x", Role: "user", CreatedAt: time.Now().UTC(),
		}))
	}
	f.svc = service.New(repository.New(conn), adapter.NewUserProviderAdapter(users), f.bus,
		logger.NewWithWriter("test", io.Discard))
	return f
}

func TestSendDefaultsPriorityAndLandsInInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, f.alice, transport.SendMessageRequest{
		ReceiverID: f.bob.String(),
		Message:    "Call <b>Acme</b> back",
	})
	require.NoError(t, err)
	assert.Equal(t, "Medium", sent.Priority)
	assert.Equal(t, "Call Acme back", sent.Message)
	assert.Len(t, f.bus.Named(events.MessageSent{}.EventName()), 1)

	inbox, err := f.svc.Inbox(ctx, f.bob, transport.InboxRequest{})
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, 1, inbox.Unread)
	assert.Equal(t, "alice", inbox.Items[0].SenderUsername)
	assert.Equal(t, "bob", inbox.Items[0].ReceiverUsername)
	assert.False(t, inbox.Items[0].Read)

	aliceInbox, err := f.svc.Inbox(ctx, f.alice, transport.InboxRequest{})
	require.NoError(t, err)
	assert.Empty(t, aliceInbox.Items)

	outbox, err := f.svc.Sent(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, outbox, 1)
}

func TestMarkReadOnlyByReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, f.alice, transport.SendMessageRequest{
		ReceiverID: f.bob.String(), Message: "hi", Priority: "High",
	})
	require.NoError(t, err)
	id := uuid.MustParse(sent.ID)

	err = f.svc.MarkRead(ctx, f.alice, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

	require.NoError(t, f.svc.MarkRead(ctx, f.bob, id))

	unread, err := f.svc.Inbox(ctx, f.bob, transport.InboxRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
	assert.Equal(t, 0, unread.Unread)

	all, err := f.svc.Inbox(ctx, f.bob, transport.InboxRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.True(t, all.Items[0].Read)
	assert.Equal(t, "High", all.Items[0].Priority)
}

func TestSendToUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), f.alice, transport.SendMessageRequest{
		ReceiverID: uuid.NewString(), Message: "hello",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	assert.Empty(t, f.bus.Named(events.MessageSent{}.EventName()))
}
