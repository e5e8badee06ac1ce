// Package telegram delivers the tutoring bot over the Telegram Bot API using
// long polling. Messages of one chat are handled strictly in order; different
// chats are handled concurrently.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/orchestrator"
)

const (
	// MaxMessageRunes keeps replies under Telegram's 4096 character limit.
	MaxMessageRunes = 4000

	pollTimeoutSec = 30
	baseDelay      = 1 * time.Second
	maxDelay       = 15 * time.Second
	idleDelay      = 200 * time.Millisecond
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Conversation handles one chat turn and resets chats.
type Conversation interface {
	Handle(ctx context.Context, sessionID, text string) (orchestrator.Reply, error)
	Reset(sessionID string)
}

// Bot routes Telegram updates to a Conversation.
type Bot struct {
	api  API
	conv Conversation
	lang string

	mu     sync.Mutex
	queues map[int64]*chatQueue
	wg     sync.WaitGroup
}

// New creates a Bot. lang is the fallback language of replies.
func New(api API, conv Conversation, lang string) *Bot {
	return &Bot{
		api:    api,
		conv:   conv,
		lang:   lang,
		queues: make(map[int64]*chatQueue),
	}
}

// Run polls for updates until ctx is cancelled, then waits for in-flight
// chats to finish.
func (b *Bot) Run(ctx context.Context) {
	b.runPolling(ctx)
	b.wg.Wait()
}

func (b *Bot) runPolling(ctx context.Context) {
	offset := 0
	for {
		if ctx.Err() != nil {
			slog.Info("telegram polling stopped")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeoutSec

		updates, err := b.api.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			slog.Warn("telegram polling error", "error", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			b.dispatch(ctx, upd)
		}

		if len(updates) == 0 {
			sleep(ctx, idleDelay)
		}
	}
}

// chatQueue holds the messages of one chat waiting for its worker.
type chatQueue struct {
	pending []*tgbotapi.Message
	running bool
}

// dispatch appends a message to its chat's queue and starts a worker when
// none is running. It never blocks the poller.
func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[chatID]
	if !ok {
		q = &chatQueue{}
		b.queues[chatID] = q
	}
	q.pending = append(q.pending, msg)
	if !q.running {
		q.running = true
		b.wg.Add(1)
		go b.worker(ctx, chatID, q)
	}
}

// worker handles a chat's messages in arrival order and exits once the
// queue is empty.
func (b *Bot) worker(ctx context.Context, chatID int64, q *chatQueue) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		if len(q.pending) == 0 || ctx.Err() != nil {
			q.running = false
			if len(q.pending) == 0 {
				delete(b.queues, chatID)
			}
			b.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		b.mu.Unlock()

		b.handleMessage(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sessionID := SessionID(chatID)

	langs := []string{}
	if msg.From != nil && msg.From.LanguageCode != "" {
		langs = append(langs, msg.From.LanguageCode)
	}
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(append(langs, b.lang)...))

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.send(chatID, appI18n.T(ctx, "Welcome"))
		case "reset":
			b.conv.Reset(sessionID)
			b.send(chatID, appI18n.T(ctx, "ResetDone"))
		default:
			b.send(chatID, appI18n.T(ctx, "Help"))
		}
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	if _, err := b.api.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.Debug("send chat action", "chat", chatID, "error", err)
	}

	reply, err := b.conv.Handle(ctx, sessionID, msg.Text)
	if err != nil {
		slog.Warn("telegram turn aborted", "chat", chatID, "error", err)
		return
	}
	b.send(chatID, reply.Text)
}

func (b *Bot) send(chatID int64, text string) {
	for _, chunk := range SplitMessage(text, MaxMessageRunes) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			slog.Error("telegram send", "chat", chatID, "error", err)
			return
		}
	}
}

// SessionID maps a chat to its session key.
func SessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// SplitMessage cuts text into chunks of at most limit runes, preferring to
// break after a newline found in the second half of a chunk. Blank text
// yields no chunks.
func SplitMessage(text string, limit int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i >= limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
