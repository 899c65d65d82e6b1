package telegram_api

import (
	"errors"
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"mycase/internal/config"
)

// api - часть tgbotapi.BotAPI, нужная для отправки сообщений. Позволяет подменять API в тестах.
// api is the subset of tgbotapi.BotAPI used for sending; tests substitute it.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// BotClient представляет собой обертку для Telegram Bot API.
// BotClient represents a wrapper for the Telegram Bot API.
type BotClient struct {
	api   api
	bot   *tgbotapi.BotAPI // nil в тестах / nil in tests
	log   *zap.Logger
	Debug bool
}

// NewBotClient инициализирует Telegram бота и отключает вебхук (важно для getUpdates).
// NewBotClient initializes the Telegram bot and drops the webhook (required for getUpdates).
func NewBotClient(cfg config.TelegramConfig, log *zap.Logger) (*BotClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("токен Telegram API не предоставлен")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	bot.Debug = cfg.Debug

	log.Info("authorized on telegram", zap.String("username", bot.Self.UserName))

	// Ошибка может возникнуть, если вебхука и не было. Логируем, но не прерываем инициализацию.
	// An error may occur if no webhook was set. Log it but keep going.
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		log.Warn("failed to delete webhook", zap.Error(err))
	}

	return &BotClient{api: bot, bot: bot, log: log, Debug: cfg.Debug}, nil
}

// newClientWithAPI используется в тестах пакета.
func newClientWithAPI(a api, log *zap.Logger) *BotClient {
	return &BotClient{api: a, log: log, Debug: true}
}

// Username - имя пользователя бота (для ссылок t.me).
func (bc *BotClient) Username() string {
	if bc.bot == nil {
		return ""
	}
	return bc.bot.Self.UserName
}

// Updates запускает long polling и возвращает канал обновлений.
// Updates starts long polling and returns the update channel.
func (bc *BotClient) Updates(timeout int) (tgbotapi.UpdatesChannel, error) {
	if bc.bot == nil {
		return nil, errors.New("BotClient или его API не инициализирован перед запросом обновлений")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	u.AllowedUpdates = []string{"message", "callback_query"}
	return bc.bot.GetUpdatesChan(u), nil
}

// StopUpdates останавливает long polling.
func (bc *BotClient) StopUpdates() {
	if bc.bot != nil {
		bc.bot.StopReceivingUpdates()
	}
}

// Send отправляет сообщение через BotClient.
// Send sends a message via BotClient.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc == nil || bc.api == nil {
		return tgbotapi.Message{}, errors.New("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			bc.log.Debug("sending message", zap.Int64("chat_id", m.ChatID), zap.Int("text_len", len(m.Text)))
		case tgbotapi.PhotoConfig:
			bc.log.Debug("sending photo", zap.Int64("chat_id", m.ChatID))
		case tgbotapi.DocumentConfig:
			bc.log.Debug("sending document", zap.Int64("chat_id", m.ChatID))
		default:
			bc.log.Debug("sending chattable", zap.String("type", fmt.Sprintf("%T", c)))
		}
	}
	return bc.api.Send(c)
}

// Request выполняет запрос через BotClient (удаление, ответы на коллбэки, правка клавиатуры).
// Request performs a request via BotClient (deletes, callback answers, markup edits).
func (bc *BotClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if bc == nil || bc.api == nil {
		return nil, errors.New("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		bc.log.Debug("telegram request", zap.String("type", fmt.Sprintf("%T", c)))
	}
	return bc.api.Request(c)
}
