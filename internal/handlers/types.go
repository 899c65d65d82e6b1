package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mycase/internal/config"
	"mycase/internal/models"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
	"mycase/internal/utils"
)

// Replier - все, что обработчикам нужно от Telegram. Реализуется telegram_api.BotClient.
// Replier is everything the handlers need from Telegram. Implemented by telegram_api.BotClient.
type Replier interface {
	Reply(ctx context.Context, m telegram_api.OutgoingMessage) (int, error)
	RemoveChoices(ctx context.Context, chatID int64, messageID int) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// OrderStore - операции хранилища, которые использует бот. Реализуется db.Store.
// OrderStore is the persistence surface used by the bot. Implemented by db.Store.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	DeleteAllOrders(ctx context.Context) (int64, error)
	UpsertBotUser(ctx context.Context, u models.BotUser) error
	GetBotUser(ctx context.Context, tgID int64) (models.BotUser, error)
}

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
// HandlerDependencies contains all dependencies required for handlers.
type HandlerDependencies struct {
	Config   *config.Config
	Replier  Replier
	Sessions session.Store
	Store    OrderStore
	Log      *zap.Logger
	Quote    utils.Quote
}

// BotHandler инкапсулирует логику обработки сообщений и коллбэков.
// BotHandler encapsulates the logic for handling messages and callbacks.
type BotHandler struct {
	Deps       HandlerDependencies
	router     *Router
	serializer *ChatSerializer
	inflight   sync.WaitGroup // уведомления администратору / admin notifications
}

// NewBotHandler создает новый экземпляр BotHandler.
// NewBotHandler creates a new instance of BotHandler.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	if deps.Config == nil || deps.Replier == nil || deps.Sessions == nil || deps.Store == nil {
		// Критическая ошибка конфигурации, бот не сможет работать.
		// Critical configuration error, the bot cannot work.
		panic("Не все зависимости для BotHandler были предоставлены.")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	bh := &BotHandler{Deps: deps, serializer: NewChatSerializer()}
	bh.router = bh.routes()
	return bh
}

// isAdmin сравнивает Telegram ID с настроенным администратором.
func (bh *BotHandler) isAdmin(userID int64) bool {
	return bh.Deps.Config.Telegram.AdminID != 0 && userID == bh.Deps.Config.Telegram.AdminID
}
