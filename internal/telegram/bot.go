package telegram

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/document"
	"github.com/spigell/cvbuilder/internal/flow"
	"github.com/spigell/cvbuilder/internal/logger"
)

const (
	DefaultPollTimeout = 50 * time.Second
	retryDelay         = 3 * time.Second
)

// Handler processes one conversation event.
type Handler interface {
	Handle(ctx context.Context, ev flow.Event, out flow.Responder) error
}

type api interface {
	sender
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	AnswerCallbackQuery(ctx context.Context, id string) error
	GetFile(ctx context.Context, fileID string) (*File, error)
	Download(ctx context.Context, file *File, limit int64) ([]byte, error)
}

type Bot struct {
	client      api
	handler     Handler
	logger      *zap.Logger
	pollTimeout time.Duration
	maxFile     int64
	queue       *dispatcher
}

// NewBot wires the client to the handler. maxFile caps document downloads.
func NewBot(client *Client, handler Handler, logger *zap.Logger, maxFile int64) *Bot {
	return newBot(client, handler, logger, maxFile)
}

func newBot(client api, handler Handler, logger *zap.Logger, maxFile int64) *Bot {
	return &Bot{
		client:      client,
		handler:     handler,
		logger:      logger,
		pollTimeout: DefaultPollTimeout,
		maxFile:     maxFile,
		queue:       newDispatcher(),
	}
}

// SetPollTimeout sets how long a single getUpdates call waits for updates.
func (b *Bot) SetPollTimeout(d time.Duration) {
	b.pollTimeout = d
}

// Run polls for updates until ctx is cancelled, then waits for the events in
// flight. Events of one user are handled in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot started", zap.Duration("poll_timeout", b.pollTimeout))
	defer b.queue.Wait()

	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if ctx.Err() != nil {
			b.logger.Info("telegram bot stopping")
			return nil
		}
		if err != nil {
			b.logger.Warn("get updates failed", zap.Error(err))
			if !sleep(ctx, retryDelay) {
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.dispatch(ctx, u)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, u Update) {
	chatID, ev, ok := b.toEvent(u)
	if !ok {
		b.logger.Debug("update ignored", zap.Int64("update_id", u.UpdateID))
		return
	}

	// Handling continues after shutdown starts so that sessions are saved.
	handleCtx := context.WithoutCancel(ctx)
	out := &chatResponder{client: b.client, chatID: chatID}
	b.queue.Submit(ev.UserID, func() {
		if u.CallbackQuery != nil {
			if err := b.client.AnswerCallbackQuery(handleCtx, u.CallbackQuery.ID); err != nil {
				b.logger.Debug("answer callback failed", zap.Error(err))
			}
		}
		if err := b.handler.Handle(handleCtx, ev, out); err != nil {
			b.logger.Error("event handling failed",
				zap.String(logger.FieldUserID, ev.UserID),
				zap.Stringer("event", ev.Kind),
				zap.Error(err),
			)
			if err := out.Send(handleCtx, flow.Reply{Text: flow.MsgTryAgain}); err != nil {
				b.logger.Debug("retry notice failed", zap.Error(err))
			}
		}
	})
}

// toEvent converts an update into a controller event and the chat to reply to.
func (b *Bot) toEvent(u Update) (int64, flow.Event, bool) {
	if q := u.CallbackQuery; q != nil {
		if q.From == nil || q.Message == nil {
			return 0, flow.Event{}, false
		}
		return q.Message.Chat.ID, flow.Event{
			UserID: userID(q.From),
			Kind:   flow.EventButton,
			Button: q.Data,
		}, true
	}

	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return 0, flow.Event{}, false
	}
	ev := flow.Event{UserID: userID(m.From)}

	switch {
	case m.Document != nil:
		ev.Kind = flow.EventDocument
		ev.Document = b.document(m.Document)
	case m.Text != "":
		if cmd, ok := flow.ParseCommand(m.Text); ok {
			ev.Kind = flow.EventCommand
			ev.Command = cmd
		} else {
			ev.Kind = flow.EventText
			ev.Text = m.Text
		}
	default:
		return 0, flow.Event{}, false
	}
	return m.Chat.ID, ev, true
}

func (b *Bot) document(d *Document) *flow.Document {
	mimeType := d.MIMEType
	if mimeType == "" {
		mimeType = document.DetectMIME(d.FileName)
	}
	fileID := d.FileID
	return &flow.Document{
		FileName: d.FileName,
		MIMEType: mimeType,
		Size:     d.FileSize,
		Fetch: func(ctx context.Context) ([]byte, error) {
			file, err := b.client.GetFile(ctx, fileID)
			if err != nil {
				return nil, err
			}
			return b.client.Download(ctx, file, b.maxFile)
		},
	}
}

func userID(u *User) string {
	return strconv.FormatInt(u.ID, 10)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
