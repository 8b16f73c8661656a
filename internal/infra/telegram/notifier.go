package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*AdminNotifier)(nil)

// AdminNotifier announces new pending requests to every admin chat.
type AdminNotifier struct {
	sender  adapter.TelegramBotAdapter
	chatIDs []int64
	log     *zerolog.Logger
}

func NewAdminNotifier(sender adapter.TelegramBotAdapter, chatIDs []int64, logger *zerolog.Logger) *AdminNotifier {
	l := logger.With().Str("component", "AdminNotifier").Logger()
	return &AdminNotifier{sender: sender, chatIDs: chatIDs, log: &l}
}

// NotifyPending sends one message per admin chat. Every chat is attempted; the
// returned error joins the failures.
func (n *AdminNotifier) NotifyPending(ctx context.Context, reqs []*model.PaymentRequest) error {
	if len(reqs) == 0 || len(n.chatIDs) == 0 {
		return nil
	}
	text := FormatPending(reqs)
	var errs []error
	for _, chatID := range n.chatIDs {
		if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
			n.log.Warn().Err(err).Int64("chat_id", chatID).Msg("admin notification failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatPending renders requests as a review list, one request per block.
func FormatPending(reqs []*model.PaymentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d payment request(s) awaiting review:\n", len(reqs))
	for _, r := range reqs {
		b.WriteString("\n")
		b.WriteString(formatRequest(r))
		b.WriteString("\n")
	}
	b.WriteString("\nReply /approve <id> or /reject <id>.")
	return b.String()
}

func formatRequest(r *model.PaymentRequest) string {
	item := r.CourseID
	if r.Kind == model.RequestKindMembership {
		item = string(r.Tier) + " membership"
	}
	line := fmt.Sprintf("%s\n%s ₹%d - %s", r.ID, item, r.Amount, r.UserEmail)
	if c := r.Contact; !c.IsZero() {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		line += fmt.Sprintf("\n%s %s", name, c.Phone)
	}
	return line
}
