package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*AdminBot)(nil)

// botAPI is the subset of tgbotapi.BotAPI the admin bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// AdminBot lets the reviewing admins list, approve and reject payment
// requests from Telegram. Messages from non-admin chats are refused.
type AdminBot struct {
	bot         botAPI
	approval    usecase.ApprovalUseCase
	ledger      usecase.LedgerUseCase
	stats       usecase.StatsUseCase
	adminIDsMap map[int64]struct{}
	log         *zerolog.Logger

	// updateWorkers is how many goroutines will concurrently process updates.
	updateWorkers int
	// cancelPolling cancels polling when called
	cancelPolling context.CancelFunc
}

func NewAdminBot(
	cfg config.TelegramConfig,
	approval usecase.ApprovalUseCase,
	ledger usecase.LedgerUseCase,
	stats usecase.StatsUseCase,
	logger *zerolog.Logger,
	updateWorkers int,
) (*AdminBot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdminBot(bot, cfg.AdminChatIDs, approval, ledger, stats, logger, updateWorkers), nil
}

func newAdminBot(
	bot botAPI,
	adminIDs []int64,
	approval usecase.ApprovalUseCase,
	ledger usecase.LedgerUseCase,
	stats usecase.StatsUseCase,
	logger *zerolog.Logger,
	updateWorkers int,
) *AdminBot {
	if updateWorkers <= 0 {
		updateWorkers = 2
	}
	adminMap := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		adminMap[id] = struct{}{}
	}
	l := logger.With().Str("component", "AdminBot").Logger()
	return &AdminBot{
		bot:           bot,
		approval:      approval,
		ledger:        ledger,
		stats:         stats,
		adminIDsMap:   adminMap,
		log:           &l,
		updateWorkers: updateWorkers,
	}
}

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *AdminBot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", workerID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	// Dispatcher goroutine: feed updates into updateChan
	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (r *AdminBot) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *AdminBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := r.bot.Send(msg)
	return err
}

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (r *AdminBot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleHelp,
		"help":    r.handleHelp,
		"pending": r.handlePending,
		"approve": r.handleDecision(true),
		"reject":  r.handleDecision(false),
		"stats":   r.handleStats,
	}
}

func (r *AdminBot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	ctx = logging.WithTraceID(ctx, fmt.Sprintf("tg-%d", update.UpdateID))
	if !r.isAdmin(message.From.ID) {
		r.log.Warn().Int64("tg_id", message.From.ID).Msg("refused non-admin message")
		return r.SendMessage(ctx, message.Chat.ID, "You are not authorized to use this bot.")
	}
	if !message.IsCommand() {
		return r.SendMessage(ctx, message.Chat.ID, "Send /help for the list of commands.")
	}
	handler, ok := r.commandRoutes()[message.Command()]
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
	return handler(ctx, message)
}

func (r *AdminBot) handleHelp(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, strings.Join([]string{
		"Payment request review:",
		"/pending - list requests awaiting review",
		"/approve <id> - approve a request and grant access",
		"/reject <id> - reject a request",
		"/stats - request and revenue totals",
	}, "\n"))
}

func (r *AdminBot) handlePending(ctx context.Context, message *tgbotapi.Message) error {
	reqs, err := r.ledger.ListPending(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("list pending failed")
		return r.SendMessage(ctx, message.Chat.ID, "Failed to load pending requests. Please try again later.")
	}
	if len(reqs) == 0 {
		return r.SendMessage(ctx, message.Chat.ID, "No pending requests.")
	}
	return r.SendMessage(ctx, message.Chat.ID, FormatPending(reqs))
}

func (r *AdminBot) handleDecision(approve bool) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		id := strings.TrimSpace(message.CommandArguments())
		if id == "" {
			return r.SendMessage(ctx, message.Chat.ID, "Usage: /"+message.Command()+" <request id>")
		}
		decide, want := r.approval.Reject, model.RequestStatusRejected
		if approve {
			decide, want = r.approval.Approve, model.RequestStatusApproved
		}
		req, err := decide(ctx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return r.SendMessage(ctx, message.Chat.ID, "Request "+id+" not found.")
		case err != nil:
			r.log.Error().Err(err).Str("payment_request_id", id).Msg("decision failed")
			return r.SendMessage(ctx, message.Chat.ID, "Failed to update request "+id+". Please try again.")
		case req.Status != want:
			return r.SendMessage(ctx, message.Chat.ID, fmt.Sprintf("Request %s is already %s.", id, req.Status))
		}
		return r.SendMessage(ctx, message.Chat.ID, fmt.Sprintf("Request %s %s.\n%s", id, req.Status, formatRequest(req)))
	}
}

func (r *AdminBot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	s, err := r.stats.Totals(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("stats failed")
		return r.SendMessage(ctx, message.Chat.ID, "Failed to get stats. Please try again later.")
	}
	text := fmt.Sprintf(
		"Users: %d\nFree enrollments: %d\nPending: %d\nApproved: %d\nRejected: %d\nRevenue: ₹%d (week ₹%d, month ₹%d)",
		s.Users, s.Enrollments,
		s.Requests[model.RequestStatusPending], s.Requests[model.RequestStatusApproved], s.Requests[model.RequestStatusRejected],
		s.RevenueTotal, s.RevenueWeek, s.RevenueMonth,
	)
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func (r *AdminBot) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}
