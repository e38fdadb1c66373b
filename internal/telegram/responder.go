package telegram

import (
	"context"

	"github.com/spigell/cvbuilder/internal/flow"
)

// sender is the part of Client used to reply in a chat.
type sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error
	SendDocument(ctx context.Context, chatID int64, fileName string, data []byte, caption string) error
}

// chatResponder delivers controller replies to one chat.
type chatResponder struct {
	client sender
	chatID int64
}

func (r *chatResponder) Send(ctx context.Context, reply flow.Reply) error {
	if reply.Attachment != nil {
		return r.client.SendDocument(ctx, r.chatID, reply.Attachment.FileName, reply.Attachment.Data, reply.Text)
	}
	return r.client.SendMessage(ctx, r.chatID, reply.Text, keyboard(reply.Buttons))
}

func keyboard(rows [][]flow.Button) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &InlineKeyboardMarkup{InlineKeyboard: make([][]InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}
