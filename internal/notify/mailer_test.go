package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func testNotification() Notification {
	return Notification{
		Submission: models.Submission{
			Name:          "Jane &lt;b&gt;",
			Email:         "jane@example.com",
			Subject:       "Website quote",
			Message:       "Hello there",
			ClientAddress: "203.0.113.7",
			CreatedAt:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		},
		ReplyTo: "jane@example.com",
	}
}

func TestMailer_SendBuildsMessage(t *testing.T) {
	fake := &fakeSender{}
	m := &Mailer{client: fake, from: "site@example.com", to: "owner@example.com"}

	require.NoError(t, m.Send(context.Background(), testNotification()))
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com"}, rcpts)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Reply-To")
	assert.Contains(t, raw, "jane@example.com")
	assert.Contains(t, raw, "[Contact] Website quote")
	assert.Contains(t, raw, "Hello there")
}

func TestMailer_SendWrapsClientError(t *testing.T) {
	m := &Mailer{client: &fakeSender{err: errors.New("dial tcp: refused")}, from: "site@example.com", to: "owner@example.com"}

	err := m.Send(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send notification")
}

func TestMailer_RejectsBadReplyTo(t *testing.T) {
	m := &Mailer{client: &fakeSender{}, from: "site@example.com", to: "owner@example.com"}
	n := testNotification()
	n.ReplyTo = "not an address"

	assert.Error(t, m.Send(context.Background(), n))
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(MailerConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "secret",
		To:       "owner@example.com",
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", m.from)
	assert.Equal(t, "smtp", m.Name())
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Send(context.Context, Notification) error {
	f.calls++
	return errors.New("smtp down")
}

func (f *failingNotifier) Name() string { return "failing" }

func TestGuarded_OpensAfterFailures(t *testing.T) {
	inner := &failingNotifier{}
	g := WithBreaker(inner, circuitbreaker.New(circuitbreaker.Config{MaxFailures: 2, Timeout: time.Hour}))

	ctx := context.Background()
	assert.Error(t, g.Send(ctx, testNotification()))
	assert.Error(t, g.Send(ctx, testNotification()))
	assert.ErrorIs(t, g.Send(ctx, testNotification()), circuitbreaker.ErrCircuitOpen)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, circuitbreaker.StateOpen, g.State())
	assert.Equal(t, "failing", g.Name())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Send(context.Background(), testNotification()))
	assert.Equal(t, "none", Nop{}.Name())
}
