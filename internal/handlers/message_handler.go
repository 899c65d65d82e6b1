// Файл: internal/handlers/message_handler.go

package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
)

// Run читает обновления long polling, пока не закроется канал или не отменится ctx.
// Перед возвратом дожидается уже принятых обновлений.
// Run consumes long-polling updates until the channel closes or ctx is cancelled.
// It waits for already accepted updates before returning.
func (bh *BotHandler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer bh.serializer.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			bh.Dispatch(ctx, u)
		}
	}
}

// Dispatch ставит обновление в очередь его чата.
// Dispatch queues the update on its chat.
func (bh *BotHandler) Dispatch(ctx context.Context, u tgbotapi.Update) {
	upd, ok := FromTelegram(u)
	if !ok {
		bh.Deps.Log.Debug("update ignored", zap.Int("update_id", u.UpdateID))
		return
	}
	// Принятое обновление обрабатывается до конца даже при остановке.
	// An accepted update is processed to completion even during shutdown.
	jobCtx := context.WithoutCancel(ctx)
	bh.serializer.Submit(upd.ChatID, func() { bh.Handle(jobCtx, upd) })
}

// Handle синхронно обрабатывает одно обновление. Ошибки и паники превращаются
// в общее сообщение об ошибке и не доходят до цикла получения обновлений.
// Handle processes one update synchronously. Errors and panics become a generic
// failure message and never reach the polling loop.
func (bh *BotHandler) Handle(ctx context.Context, upd Update) {
	log := bh.Deps.Log.With(zap.Int64("chat_id", upd.ChatID), zap.Int("update_id", upd.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
			bh.replyText(ctx, upd.ChatID, constants.MSG_GENERIC_ERROR)
		}
	}()

	log.Debug("update received", zap.String("kind", upd.Kind()), zap.String("command", upd.Command))

	sess, err := bh.Deps.Sessions.Get(ctx, upd.ChatID)
	if err != nil {
		log.Error("failed to load session", zap.Error(err))
		bh.replyText(ctx, upd.ChatID, constants.MSG_GENERIC_ERROR)
		return
	}

	if err := bh.route(ctx, upd, sess); err != nil {
		log.Error("update handling failed", zap.String("state", string(sess.State())), zap.Error(err))
		bh.replyText(ctx, upd.ChatID, constants.MSG_GENERIC_ERROR)
	}
}

func (bh *BotHandler) route(ctx context.Context, upd Update, sess session.ChatSession) error {
	if upd.IsCommand() && !bh.router.isGlobal(upd.Command) {
		switch {
		case sess.State() == session.StateAwaitingModel:
			// Вместо модели пришла команда: диалог сбрасывается, команда не выполняется.
			// A command arrived instead of a model: the flow is reset and the command is not run.
			if err := bh.transition(ctx, &sess, evAbort, session.Idle{}); err != nil {
				return err
			}
			bh.replyText(ctx, upd.ChatID, constants.MSG_MODEL_IS_COMMAND)
			return nil
		case sess.InFlow():
			if err := bh.abortFlow(ctx, &sess); err != nil {
				return err
			}
			bh.replyText(ctx, upd.ChatID, constants.MSG_FLOW_ABORTED)
		case sess.State() == session.StateAwaitingOrderID:
			if err := bh.transition(ctx, &sess, evAbort, session.Idle{}); err != nil {
				return err
			}
		}
	}

	h, ok := bh.router.lookup(upd, sess.State())
	if !ok {
		h = bh.router.fallback
	}
	return h(ctx, upd, sess)
}

// abortFlow прерывает оформление; кнопки сводки, если она была, убираются.
func (bh *BotHandler) abortFlow(ctx context.Context, sess *session.ChatSession) error {
	if st, ok := sess.Step.(session.AwaitingConfirmation); ok {
		bh.removeChoices(ctx, sess.ChatID, st.SummaryMessageID)
	}
	return bh.transition(ctx, sess, evAbort, session.Idle{})
}

// transition проверяет событие по графу и сохраняет новый шаг.
// Переход в Idle удаляет сессию.
// transition validates the event against the graph and stores the new step.
// A transition to Idle clears the session.
func (bh *BotHandler) transition(ctx context.Context, sess *session.ChatSession, ev event, next session.Step) error {
	to, err := nextState(ctx, sess.State(), ev)
	if err != nil {
		return err
	}
	if to != next.State() {
		return fmt.Errorf("%w: %s leads to %s, got step %s", ErrTransitionRejected, ev, to, next.State())
	}

	bh.Deps.Log.Debug("flow transition",
		zap.Int64("chat_id", sess.ChatID),
		zap.String("event", string(ev)),
		zap.String("from", string(sess.State())),
		zap.String("to", string(to)))

	sess.Step = next
	sess.UpdatedAt = time.Now()
	if to == session.StateIdle {
		return bh.Deps.Sessions.Clear(ctx, sess.ChatID)
	}
	return bh.Deps.Sessions.Set(ctx, *sess)
}

func (bh *BotHandler) handleUnknown(ctx context.Context, upd Update, _ session.ChatSession) error {
	if upd.Callback != nil {
		bh.Deps.Log.Debug("unknown callback data", zap.String("data", upd.Callback.Data))
		bh.answerCallback(ctx, upd.Callback.ID, "")
		return nil
	}
	bh.replyText(ctx, upd.ChatID, constants.MSG_UNKNOWN_INPUT)
	return nil
}

// replyText отправляет текст; ошибка только логируется.
func (bh *BotHandler) replyText(ctx context.Context, chatID int64, text string) {
	if _, err := bh.Deps.Replier.Reply(ctx, telegram_api.OutgoingMessage{ChatID: chatID, Text: text}); err != nil {
		bh.Deps.Log.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (bh *BotHandler) removeChoices(ctx context.Context, chatID int64, messageID int) {
	if err := bh.Deps.Replier.RemoveChoices(ctx, chatID, messageID); err != nil {
		bh.Deps.Log.Warn("failed to remove choices", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
}

func (bh *BotHandler) answerCallback(ctx context.Context, callbackID, text string) {
	if err := bh.Deps.Replier.AnswerCallback(ctx, callbackID, text); err != nil {
		bh.Deps.Log.Warn("failed to answer callback", zap.String("callback_id", callbackID), zap.Error(err))
	}
}

// Wait дожидается очередей чатов и фоновых уведомлений администратору.
// Wait blocks until chat queues and background admin notifications are done.
func (bh *BotHandler) Wait() {
	bh.serializer.Wait()
	bh.inflight.Wait()
}
