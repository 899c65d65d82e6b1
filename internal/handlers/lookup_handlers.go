package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/db"
	"mycase/internal/formatters"
	"mycase/internal/models"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
	"mycase/internal/utils"
)

// errOrderUnavailable - единый ответ для "не найден" и "чужой заказ",
// чтобы нельзя было узнать о существовании чужих заказов.
// errOrderUnavailable is the single outcome for both "not found" and "not owned",
// so other users' orders cannot be enumerated.
var errOrderUnavailable = errors.New("order unavailable")

func (bh *BotHandler) handleStart(ctx context.Context, upd Update, _ session.ChatSession) error {
	user := models.BotUser{
		TgID:        upd.From.UserID,
		DisplayName: utils.TrimRunes(upd.From.DisplayName, constants.BOT_USER_NAME_MAX_RUNES),
		Username:    upd.From.Username,
		Language:    upd.Language,
	}
	if err := bh.Deps.Store.UpsertBotUser(ctx, user); err != nil {
		bh.Deps.Log.Warn("failed to register bot user", zap.Int64("user_id", user.TgID), zap.Error(err))
	}

	if arg, ok := strings.CutPrefix(upd.CommandArgs, constants.DEEP_LINK_CHECK_PREFIX); ok {
		id, err := utils.ParseOrderID(arg)
		if err != nil {
			bh.replyText(ctx, upd.ChatID, constants.MSG_INVALID_ORDER_ID)
			return nil
		}
		return bh.showOrder(ctx, upd, id)
	}

	text := fmt.Sprintf(constants.MSG_WELCOME, utils.SanitizeText(upd.From.DisplayName))
	if known, err := bh.Deps.Store.GetBotUser(ctx, user.TgID); err == nil && known.TotalOrders > 0 {
		text += fmt.Sprintf(constants.MSG_RETURNING_ORDERS, known.TotalOrders)
	}
	bh.replyText(ctx, upd.ChatID, text)
	return nil
}

func (bh *BotHandler) handleInfo(ctx context.Context, upd Update, _ session.ChatSession) error {
	q := bh.Deps.Quote
	bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_INFO, q.Format(q.Case), q.Format(q.Delivery), q.Format(q.Total())))
	return nil
}

// handleMyOrders показывает заказы отправителя. Пустой список - не ошибка.
func (bh *BotHandler) handleMyOrders(ctx context.Context, upd Update, _ session.ChatSession) error {
	orders, err := bh.Deps.Store.ListOrdersByUser(ctx, upd.From.UserID)
	if err != nil {
		return fmt.Errorf("list own orders: %w", err)
	}
	bh.replyText(ctx, upd.ChatID, formatters.OrdersList(orders, bh.Deps.Config.Telegram.BotUsername))
	return nil
}

func (bh *BotHandler) handleGetOrder(ctx context.Context, upd Update, sess session.ChatSession) error {
	if err := bh.transition(ctx, &sess, evLookup, session.AwaitingOrderID{}); err != nil {
		return err
	}
	bh.replyText(ctx, upd.ChatID, constants.MSG_ENTER_ORDER_ID)
	return nil
}

// handleOrderID разбирает номер заказа. При ошибке формата бот остается в ожидании номера.
// handleOrderID parses the order number. On a format error the bot keeps waiting for a number.
func (bh *BotHandler) handleOrderID(ctx context.Context, upd Update, sess session.ChatSession) error {
	id, err := utils.ParseOrderID(upd.Text)
	if err != nil {
		bh.replyText(ctx, upd.ChatID, constants.MSG_INVALID_ID_FORMAT)
		return nil
	}
	if err := bh.transition(ctx, &sess, evOrderID, session.Idle{}); err != nil {
		return err
	}
	return bh.showOrder(ctx, upd, id)
}

// findOwnedOrder возвращает заказ, если его может видеть requester. Администратор видит все.
func (bh *BotHandler) findOwnedOrder(ctx context.Context, requester, id int64) (models.Order, error) {
	order, err := bh.Deps.Store.GetOrder(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Order{}, errOrderUnavailable
	}
	if err != nil {
		return models.Order{}, err
	}
	if bh.isAdmin(requester) {
		return order, nil
	}
	if !order.UserID.Valid || order.UserID.Int64 != requester {
		return models.Order{}, errOrderUnavailable
	}
	return order, nil
}

func (bh *BotHandler) showOrder(ctx context.Context, upd Update, id int64) error {
	order, err := bh.findOwnedOrder(ctx, upd.From.UserID, id)
	if errors.Is(err, errOrderUnavailable) {
		bh.Deps.Log.Info("order lookup refused", zap.Int64("user_id", upd.From.UserID), zap.Int64("order_id", id))
		bh.replyText(ctx, upd.ChatID, constants.MSG_INVALID_ORDER_ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup order %d: %w", id, err)
	}

	msg := telegram_api.OutgoingMessage{ChatID: upd.ChatID, Text: formatters.OrderDetails(order)}
	// У заказов из бота вид вложения не хранится: клиент попробует документ, затем фото.
	// Bot orders do not store the attachment kind: the client tries a document, then a photo.
	if order.Kind == models.OrderKindBot && order.AttachmentRef.Valid {
		msg.Attachment = &telegram_api.Attachment{FileID: order.AttachmentRef.String}
	}
	_, err = bh.Deps.Replier.Reply(ctx, msg)
	if err == nil {
		return nil
	}
	if msg.Attachment == nil {
		return fmt.Errorf("send order %d: %w", id, err)
	}
	bh.Deps.Log.Warn("order attachment unavailable, sending text only", zap.Int64("order_id", id), zap.Error(err))
	bh.replyText(ctx, upd.ChatID, msg.Text)
	return nil
}

// handleDeleteAll - /delete: удаление всех заказов, только для администратора.
// Отказ содержит ID отправителя.
// handleDeleteAll removes every order; admin only. The refusal echoes the sender's ID.
func (bh *BotHandler) handleDeleteAll(ctx context.Context, upd Update, _ session.ChatSession) error {
	if !bh.isAdmin(upd.From.UserID) {
		bh.Deps.Log.Warn("bulk delete refused", zap.Int64("user_id", upd.From.UserID))
		bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_ADMIN_REFUSAL, upd.From.UserID))
		return nil
	}
	deleted, err := bh.Deps.Store.DeleteAllOrders(ctx)
	if err != nil {
		return fmt.Errorf("delete all orders: %w", err)
	}
	bh.replyText(ctx, upd.ChatID, fmt.Sprintf(constants.MSG_ADMIN_DELETED, deleted))
	return nil
}
