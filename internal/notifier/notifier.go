// Package notifier доставляет заказы с сайта в чат сотрудников.
// Доставка best-effort: вызывающий код только логирует ошибки.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/formatters"
	"mycase/internal/models"
	"mycase/internal/utils"
)

const (
	captionLimit     = 1024
	defaultTimeout   = 15 * time.Second
	maxFailures      = 5
	breakerOpenDelay = 30 * time.Second
)

// ErrCircuitOpen - Telegram недавно много раз подряд не отвечал, отправка пропущена.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Sender - отправка в Telegram. Реализуется telegram_api.BotClient.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// OrderNotice - заказ и все, что к нему приложено.
// OrderNotice is an order together with everything attached to it.
type OrderNotice struct {
	Order  models.Order
	Design *models.Design
	// ImageRef - URL или локальный путь к изображению дизайна.
	// ImageRef is a URL or a local path of the design image.
	ImageRef string
	// Files - дополнительные файлы клиента (локальные пути), уходят документами.
	Files []string
}

// StaffNotifier отправляет уведомления в фиксированный чат сотрудников.
type StaffNotifier struct {
	sender  Sender
	chatID  int64
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func New(sender Sender, chatID int64, timeout time.Duration, log *zap.Logger) *StaffNotifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	settings := gobreaker.Settings{
		Name:        "staff-notifier",
		MaxRequests: 1,
		Timeout:     breakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &StaffNotifier{
		sender:  sender,
		chatID:  chatID,
		timeout: timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// NotifyOrder отправляет заказ в чат сотрудников. Изображение уходит фото с подписью;
// если его нет или оно не отправилось, уходит текст с пометкой "без изображения".
// Дополнительные файлы отправляются документами, их ошибки только логируются.
// NotifyOrder posts the order to the staff chat. The image goes as a captioned photo;
// when it is missing or fails, plain text with a "without image" note is sent instead.
// Extra files go as documents and their failures are only logged.
func (n *StaffNotifier) NotifyOrder(ctx context.Context, notice OrderNotice) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	text := formatters.StaffOrderNotice(notice.Order, notice.Design)
	_, err := n.cb.Execute(func() (interface{}, error) {
		return nil, n.deliver(ctx, notice, text)
	})
	if err != nil {
		return fmt.Errorf("notify order %d: %w", notice.Order.ID, err)
	}
	n.log.Info("staff notified", zap.Int64("order_id", notice.Order.ID), zap.String("kind", string(notice.Order.Kind)))
	return nil
}

// SendText отправляет произвольный текст (дайджесты планировщика).
func (n *StaffNotifier) SendText(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	_, err := n.cb.Execute(func() (interface{}, error) {
		return nil, n.send(ctx, htmlMessage(n.chatID, text))
	})
	return err
}

func (n *StaffNotifier) deliver(ctx context.Context, notice OrderNotice, text string) error {
	if notice.ImageRef != "" {
		err := n.sendImage(ctx, notice.ImageRef, text)
		if err == nil {
			n.sendFiles(ctx, notice.Order.ID, notice.Files)
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		n.log.Warn("design image not delivered, falling back to text",
			zap.Int64("order_id", notice.Order.ID),
			zap.String("image", notice.ImageRef),
			zap.Error(err))
	}

	if err := n.send(ctx, htmlMessage(n.chatID, text+"\n"+constants.MSG_DESIGN_WITHOUT_IMAGE)); err != nil {
		return err
	}
	n.sendFiles(ctx, notice.Order.ID, notice.Files)
	return nil
}

func (n *StaffNotifier) sendImage(ctx context.Context, ref, text string) error {
	photo := tgbotapi.NewPhoto(n.chatID, requestFile(ref))
	photo.ParseMode = tgbotapi.ModeHTML
	if utf8.RuneCountInString(text) <= captionLimit {
		photo.Caption = text
		return n.send(ctx, photo)
	}
	if err := n.send(ctx, photo); err != nil {
		return err
	}
	return n.send(ctx, htmlMessage(n.chatID, text))
}

func (n *StaffNotifier) sendFiles(ctx context.Context, orderID int64, files []string) {
	for _, path := range files {
		doc := tgbotapi.NewDocument(n.chatID, requestFile(path))
		if err := n.send(ctx, doc); err != nil {
			n.log.Warn("extra file not delivered",
				zap.Int64("order_id", orderID),
				zap.String("file", utils.BaseFilename(path)),
				zap.Error(err))
		}
	}
}

// send не ждет дольше ctx: клиент Telegram не принимает context.
// send never waits past ctx: the Telegram client does not take a context.
func (n *StaffNotifier) send(ctx context.Context, c tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := n.sender.Send(c)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requestFile(ref string) tgbotapi.RequestFileData {
	if utils.IsRemoteURL(ref) {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FilePath(ref)
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
