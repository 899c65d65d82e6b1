package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/db"
	"mycase/internal/formatters"
	"mycase/internal/models"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
	"mycase/internal/utils"
)

const defaultNotifyTimeout = 10 * time.Second

// activeSummary возвращает шаг подтверждения, если кнопка нажата под текущей сводкой.
// Повторное нажатие после завершения или под старой сводкой - не активно.
// activeSummary returns the confirmation step when the button belongs to the current summary.
// A replayed tap after completion, or a tap under an older summary, is inactive.
func activeSummary(upd Update, sess session.ChatSession) (session.AwaitingConfirmation, bool) {
	st, ok := sess.Step.(session.AwaitingConfirmation)
	if !ok || upd.Callback.MessageID != st.SummaryMessageID {
		return session.AwaitingConfirmation{}, false
	}
	return st, true
}

// inactiveTap отвечает на нажатие неактуальной кнопки и убирает ее. Состояние не меняется.
func (bh *BotHandler) inactiveTap(ctx context.Context, upd Update, sess session.ChatSession) error {
	bh.Deps.Log.Info("inactive confirmation tap",
		zap.Int64("chat_id", upd.ChatID),
		zap.Int("message_id", upd.Callback.MessageID),
		zap.String("state", string(sess.State())))
	bh.answerCallback(ctx, upd.Callback.ID, constants.MSG_FLOW_INACTIVE)
	bh.removeChoices(ctx, upd.ChatID, upd.Callback.MessageID)
	return nil
}

// handleConfirm сохраняет заказ. При ошибке сохранения диалог остается в
// AwaitingConfirmation с теми же данными, чтобы можно было нажать еще раз.
// handleConfirm persists the order. On a persistence failure the flow stays in
// AwaitingConfirmation with its data intact so the user can tap again.
func (bh *BotHandler) handleConfirm(ctx context.Context, upd Update, sess session.ChatSession) error {
	st, ok := activeSummary(upd, sess)
	if !ok {
		return bh.inactiveTap(ctx, upd, sess)
	}
	if _, err := nextState(ctx, sess.State(), evConfirm); err != nil {
		return err
	}

	order := models.Order{
		UserID:        models.NewNullInt64(st.Customer.UserID),
		CustomerName:  utils.TrimRunes(st.Customer.DisplayName, constants.CUSTOMER_NAME_MAX_RUNES),
		PhoneNumber:   bh.Deps.Config.Telegram.ContactPhone,
		Address:       st.Address,
		PhoneModel:    st.Model,
		AttachmentRef: models.NewNullString(st.Photo.FileID),
		Kind:          models.OrderKindBot,
	}
	orderID, err := bh.Deps.Store.CreateOrder(ctx, &order)
	if err != nil {
		bh.Deps.Log.Error("failed to persist order",
			zap.Int64("chat_id", upd.ChatID),
			zap.Bool("data_error", db.IsPersistenceError(err)),
			zap.Error(err))
		bh.answerCallback(ctx, upd.Callback.ID, "")
		bh.replyText(ctx, upd.ChatID, constants.MSG_ORDER_SAVE_FAILED)
		return nil
	}

	if err := bh.transition(ctx, &sess, evConfirm, session.Completed{OrderID: orderID}); err != nil {
		// Заказ уже сохранен: сводка не должна остаться активной, иначе повторное
		// нажатие создаст дубль. Пользователю сообщаем о заказе в любом случае.
		// The order is committed: the summary must not stay active or a second tap
		// would duplicate it. The user is told about the order regardless.
		bh.Deps.Log.Error("failed to store completed session", zap.Int64("order_id", orderID), zap.Error(err))
		if cerr := bh.Deps.Sessions.Clear(ctx, upd.ChatID); cerr != nil {
			bh.Deps.Log.Error("failed to clear session after order", zap.Int64("order_id", orderID), zap.Error(cerr))
		}
	}

	bh.removeChoices(ctx, upd.ChatID, st.SummaryMessageID)
	bh.answerCallback(ctx, upd.Callback.ID, "")
	bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_ORDER_CREATED, orderID))

	bh.notifyAdmin(order, st.Customer.Username, st.Photo)
	return nil
}

// handleCancel удаляет сводку и завершает диалог без заказа.
func (bh *BotHandler) handleCancel(ctx context.Context, upd Update, sess session.ChatSession) error {
	st, ok := activeSummary(upd, sess)
	if !ok {
		return bh.inactiveTap(ctx, upd, sess)
	}

	bh.removeChoices(ctx, upd.ChatID, st.SummaryMessageID)
	if err := bh.Deps.Replier.Delete(ctx, upd.ChatID, st.SummaryMessageID); err != nil {
		bh.Deps.Log.Warn("failed to delete summary", zap.Int64("chat_id", upd.ChatID), zap.Error(err))
	}
	if err := bh.transition(ctx, &sess, evCancel, session.Cancelled{}); err != nil {
		return err
	}
	bh.answerCallback(ctx, upd.Callback.ID, "")
	bh.replyText(ctx, upd.ChatID, constants.MSG_ORDER_CANCELLED)
	return nil
}

// notifyAdmin отправляет администратору сводку заказа в фоне, со своим таймаутом.
// Ошибка только логируется: заказ уже сохранен.
// notifyAdmin sends the order summary to the admin in the background with its own timeout.
// Failures are only logged: the order is already committed.
func (bh *BotHandler) notifyAdmin(order models.Order, username string, photo session.Photo) {
	adminID := bh.Deps.Config.Telegram.AdminID
	if adminID == 0 {
		return
	}
	timeout := bh.Deps.Config.Telegram.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	msg := telegram_api.OutgoingMessage{ChatID: adminID, Text: formatters.AdminNewOrder(order, username)}
	if photo.FileID != "" {
		msg.Attachment = &telegram_api.Attachment{FileID: photo.FileID, Kind: photo.Kind}
	}

	bh.inflight.Add(1)
	go func() {
		defer bh.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := bh.Deps.Replier.Reply(ctx, msg); err != nil {
			bh.Deps.Log.Warn("admin notification failed", zap.Int64("order_id", order.ID), zap.Error(err))
			return
		}
		bh.Deps.Log.Debug("admin notified", zap.Int64("order_id", order.ID))
	}()
}
