package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"stockroom/internal/platform/guard"
)

var _ guard.LockNotifier = (*LockNotifier)(nil)

// LockNotifier mails an operator when an account gets locked. Delivery
// failures are logged and never reach the login flow.
type LockNotifier struct {
	mailer Mailer
	from   string
	to     []string
}

func NewLockNotifier(mailer Mailer, from string, to ...string) *LockNotifier {
	return &LockNotifier{mailer: mailer, from: from, to: to}
}

func (n *LockNotifier) AccountLocked(ctx context.Context, identity guard.Identity, until time.Time) {
	message := Email{
		Subject: fmt.Sprintf("Account %q locked", identity.Username),
		Body: fmt.Sprintf(
			"The account %q (id %d) was locked after repeated failed sign-in attempts.\n\nThe lock expires at %s.\n",
			identity.Username, identity.ID, until.UTC().Format(time.RFC1123),
		),
		From: n.from,
		To:   n.to,
	}

	if err := n.mailer.SendMail(ctx, &message); err != nil {
		log.Errorw("failed to send lock notification", "user_id", identity.ID, "error", err)
		return
	}

	log.Infow("lock notification sent", "user_id", identity.ID, "until", until)
}
