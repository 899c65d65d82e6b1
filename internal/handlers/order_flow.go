package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/formatters"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
)

// handleStartOrder - /order: начинает оформление заново из любого состояния.
// handleStartOrder starts the flow from scratch in any state.
func (bh *BotHandler) handleStartOrder(ctx context.Context, upd Update, sess session.ChatSession) error {
	if st, ok := sess.Step.(session.AwaitingConfirmation); ok {
		bh.removeChoices(ctx, upd.ChatID, st.SummaryMessageID)
	}
	if err := bh.transition(ctx, &sess, evStartOrder, session.AwaitingModel{}); err != nil {
		return err
	}
	bh.replyText(ctx, upd.ChatID, constants.MSG_ASK_MODEL)
	return nil
}

// handleReset - /clear: безусловный сброс в Idle.
func (bh *BotHandler) handleReset(ctx context.Context, upd Update, sess session.ChatSession) error {
	if st, ok := sess.Step.(session.AwaitingConfirmation); ok {
		bh.removeChoices(ctx, upd.ChatID, st.SummaryMessageID)
	}
	if err := bh.transition(ctx, &sess, evReset, session.Idle{}); err != nil {
		return err
	}
	bh.replyText(ctx, upd.ChatID, constants.MSG_FLOW_RESET)
	return nil
}

func (bh *BotHandler) handleModel(ctx context.Context, upd Update, sess session.ChatSession) error {
	if upd.Text == "" {
		bh.replyText(ctx, upd.ChatID, constants.MSG_ASK_MODEL)
		return nil
	}
	if utf8.RuneCountInString(upd.Text) > constants.PHONE_MODEL_MAX_RUNES {
		bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_MODEL_TOO_LONG, constants.PHONE_MODEL_MAX_RUNES))
		return nil
	}
	next := session.AwaitingPhoto{Customer: upd.From, Model: upd.Text}
	if err := bh.transition(ctx, &sess, evModel, next); err != nil {
		return err
	}
	bh.replyText(ctx, upd.ChatID, constants.MSG_ASK_PHOTO)
	return nil
}

func (bh *BotHandler) handlePhoto(ctx context.Context, upd Update, sess session.ChatSession) error {
	st, ok := sess.Step.(session.AwaitingPhoto)
	if !ok {
		return fmt.Errorf("%w: unexpected step %T", ErrTransitionRejected, sess.Step)
	}

	switch {
	case upd.Attachment != nil:
		next := session.AwaitingAddress{Customer: st.Customer, Model: st.Model, Photo: *upd.Attachment}
		if err := bh.transition(ctx, &sess, evAttachment, next); err != nil {
			return err
		}
		bh.replyText(ctx, upd.ChatID, constants.MSG_ASK_ADDRESS)

	case strings.EqualFold(upd.Text, constants.CANCEL_WORD):
		if err := bh.transition(ctx, &sess, evCancel, session.Cancelled{}); err != nil {
			return err
		}
		bh.replyText(ctx, upd.ChatID, constants.MSG_ORDER_CANCELLED)

	default:
		if err := bh.transition(ctx, &sess, evRejectText, st); err != nil {
			return err
		}
		bh.replyText(ctx, upd.ChatID, constants.MSG_PHOTO_NOT_TEXT)
	}
	return nil
}

// handleAddress сохраняет адрес и показывает сводку с кнопками подтверждения.
// Без фото сводка уходит текстом с пометкой, заказ все равно можно подтвердить.
// handleAddress stores the address and shows the summary with confirm/cancel choices.
// Without a photo the summary is sent as text with a note; the order may still proceed.
func (bh *BotHandler) handleAddress(ctx context.Context, upd Update, sess session.ChatSession) error {
	st, ok := sess.Step.(session.AwaitingAddress)
	if !ok {
		return fmt.Errorf("%w: unexpected step %T", ErrTransitionRejected, sess.Step)
	}
	if upd.Text == "" {
		bh.replyText(ctx, upd.ChatID, constants.MSG_ADDRESS_IS_EMPTY)
		return nil
	}
	if utf8.RuneCountInString(upd.Text) > constants.ADDRESS_MAX_RUNES {
		bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_ADDRESS_TOO_LONG, constants.ADDRESS_MAX_RUNES))
		return nil
	}

	hasPhoto := st.Photo.FileID != ""
	msg := telegram_api.OutgoingMessage{
		ChatID: upd.ChatID,
		Text:   formatters.OrderSummary(st.Model, upd.Text, hasPhoto, bh.Deps.Quote),
		Choices: []telegram_api.Choice{
			{Text: constants.BTN_CONFIRM, Data: constants.CALLBACK_CONFIRM},
			{Text: constants.BTN_CANCEL, Data: constants.CALLBACK_CANCEL},
		},
	}
	if hasPhoto {
		msg.Attachment = &telegram_api.Attachment{FileID: st.Photo.FileID, Kind: st.Photo.Kind}
	}

	summaryID, err := bh.Deps.Replier.Reply(ctx, msg)
	if err != nil {
		return fmt.Errorf("send order summary: %w", err)
	}

	next := session.AwaitingConfirmation{
		Customer:         st.Customer,
		Model:            st.Model,
		Photo:            st.Photo,
		Address:          upd.Text,
		SummaryMessageID: summaryID,
	}
	if err := bh.transition(ctx, &sess, evAddress, next); err != nil {
		bh.removeChoices(ctx, upd.ChatID, summaryID)
		return err
	}
	bh.Deps.Log.Debug("order summary shown", zap.Int64("chat_id", upd.ChatID), zap.Int("message_id", summaryID))
	return nil
}

func (bh *BotHandler) handleTextWhileConfirming(ctx context.Context, upd Update, _ session.ChatSession) error {
	bh.replyText(ctx, upd.ChatID, constants.MSG_USE_BUTTONS)
	return nil
}
