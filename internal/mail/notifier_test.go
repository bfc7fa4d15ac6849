package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/platform/guard"
)

type fakeMailer struct {
	sent []Email
	err  error
}

func (m *fakeMailer) SendMail(_ context.Context, e *Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, *e)
	return nil
}

func TestLockNotifierSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	notifier := NewLockNotifier(mailer, "Stockroom <noreply@example.com>", "ops@example.com")
	until := time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)

	notifier.AccountLocked(context.Background(), guard.Identity{ID: 7, Username: "alice", Role: "user"}, until)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, `Account "alice" locked`, msg.Subject)
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Equal(t, "Stockroom <noreply@example.com>", msg.From)
	assert.Contains(t, msg.Body, "(id 7)")
	assert.Contains(t, msg.Body, "Fri, 01 Mar 2024 12:15:00 UTC")
}

func TestLockNotifierSwallowsErrors(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("mailgun down")}
	notifier := NewLockNotifier(mailer, "noreply@example.com", "ops@example.com")

	assert.NotPanics(t, func() {
		notifier.AccountLocked(context.Background(), guard.Identity{ID: 1, Username: "bob"}, time.Now())
	})
	assert.Empty(t, mailer.sent)
}

func TestMailgunSender(t *testing.T) {
	m := NewMailer("mg.example.com", "key", "https://api.mailgun.net/v3")
	assert.Equal(t, "Stockroom <noreply@mg.example.com>", m.Sender())
}
