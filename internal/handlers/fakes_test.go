package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mycase/internal/config"
	"mycase/internal/db"
	"mycase/internal/models"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
	"mycase/internal/utils"
)

const (
	testChatID  int64 = 100
	testUserID  int64 = 100
	otherUserID int64 = 200
	adminID     int64 = 999
)

type telegramMessage = telegram_api.OutgoingMessage

type fakeReplier struct {
	mu        sync.Mutex
	nextID    int
	messages  []telegram_api.OutgoingMessage
	removed   []int
	deleted   []int
	answers   []string
	replyFail func(m telegram_api.OutgoingMessage) error
}

func (f *fakeReplier) Reply(_ context.Context, m telegram_api.OutgoingMessage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyFail != nil {
		if err := f.replyFail(m); err != nil {
			return 0, err
		}
	}
	f.nextID++
	f.messages = append(f.messages, m)
	return f.nextID, nil
}

func (f *fakeReplier) RemoveChoices(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, messageID)
	return nil
}

func (f *fakeReplier) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeReplier) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

// to возвращает сообщения, отправленные в чат.
func (f *fakeReplier) to(chatID int64) []telegram_api.OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []telegram_api.OutgoingMessage
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeReplier) last(chatID int64) telegram_api.OutgoingMessage {
	msgs := f.to(chatID)
	if len(msgs) == 0 {
		return telegram_api.OutgoingMessage{}
	}
	return msgs[len(msgs)-1]
}

type fakeStore struct {
	mu         sync.Mutex
	orders     map[int64]models.Order
	nextID     int64
	createErr  error
	users      []models.BotUser
	listCalls  int
	panicOnGet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[int64]models.Order)}
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	// Ширина колонок как в миграции: Postgres отвечает 22001.
	if utf8.RuneCountInString(order.CustomerName) > 100 ||
		utf8.RuneCountInString(order.PhoneNumber) > 32 ||
		utf8.RuneCountInString(order.Address) > 500 ||
		utf8.RuneCountInString(order.PhoneModel) > 128 {
		return 0, fmt.Errorf("create order: %w: value too long for type character varying", db.ErrDataInvalid)
	}
	f.nextID++
	order.ID = f.nextID
	order.Status = models.OrderStatusPending
	order.CreatedAt = time.Now()
	f.orders[order.ID] = *order
	return order.ID, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnGet {
		panic("store exploded")
	}
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("get order %d: %w", id, db.ErrNotFound)
	}
	return o, nil
}

func (f *fakeStore) ListOrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID.Valid && o.UserID.Int64 == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAllOrders(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.orders))
	f.orders = make(map[int64]models.Order)
	return n, nil
}

func (f *fakeStore) UpsertBotUser(_ context.Context, u models.BotUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	return nil
}

func (f *fakeStore) GetBotUser(_ context.Context, tgID int64) (models.BotUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TgID != tgID {
			continue
		}
		for _, o := range f.orders {
			if o.UserID.Valid && o.UserID.Int64 == tgID {
				u.TotalOrders++
			}
		}
		return u, nil
	}
	return models.BotUser{}, fmt.Errorf("get bot user %d: %w", tgID, db.ErrNotFound)
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type harness struct {
	t        *testing.T
	bh       *BotHandler
	replier  *fakeReplier
	store    *fakeStore
	sessions *session.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			AdminID:       adminID,
			BotUsername:   "case_bot",
			NotifyTimeout: time.Second,
			ContactPhone:  "068109777",
		},
	}
	h := &harness{
		t:        t,
		replier:  &fakeReplier{},
		store:    newFakeStore(),
		sessions: session.NewMemoryStore(),
	}
	h.bh = NewBotHandler(HandlerDependencies{
		Config:   cfg,
		Replier:  h.replier,
		Sessions: h.sessions,
		Store:    h.store,
		Log:      zap.NewNop(),
		Quote:    utils.Quote{Case: decimal.NewFromInt(250), Delivery: decimal.NewFromInt(50), Currency: "MDL"},
	})
	return h
}

func textFrom(userID int64, text string) Update {
	upd := Update{
		ChatID: userID,
		From:   session.Customer{UserID: userID, DisplayName: "Ana Popescu", Username: "ana"},
		Text:   strings.TrimSpace(text),
	}
	if upd.IsCommand() {
		upd.Command, upd.CommandArgs = parseCommand(upd.Text)
	}
	return upd
}

func (h *harness) send(text string) {
	h.bh.Handle(context.Background(), textFrom(testUserID, text))
}

func (h *harness) sendAs(userID int64, text string) {
	h.bh.Handle(context.Background(), textFrom(userID, text))
}

func (h *harness) sendPhoto(fileID, kind string) {
	upd := textFrom(testUserID, "")
	upd.Attachment = &session.Photo{FileID: fileID, Kind: kind}
	h.bh.Handle(context.Background(), upd)
}

func (h *harness) tap(data string, messageID int) {
	upd := Update{
		ChatID:   testChatID,
		From:     session.Customer{UserID: testUserID, DisplayName: "Ana Popescu", Username: "ana"},
		Callback: &Callback{ID: "cb", Data: data, MessageID: messageID},
	}
	h.bh.Handle(context.Background(), upd)
}

// sendNamed отправляет текст от имени клиента с другим отображаемым именем.
func (h *harness) sendNamed(displayName, text string) {
	upd := textFrom(testUserID, text)
	upd.From.DisplayName = displayName
	h.bh.Handle(context.Background(), upd)
}

// completedSetFails теряет запись завершенного шага, как недоступный Redis.
type completedSetFails struct {
	*session.MemoryStore
}

func (s completedSetFails) Set(ctx context.Context, cs session.ChatSession) error {
	if _, ok := cs.Step.(session.Completed); ok {
		return fmt.Errorf("redis: connection refused")
	}
	return s.MemoryStore.Set(ctx, cs)
}

func (h *harness) session() session.ChatSession {
	h.t.Helper()
	s, err := h.sessions.Get(context.Background(), testChatID)
	require.NoError(h.t, err)
	return s
}

func (h *harness) lastText() string {
	return h.replier.last(testChatID).Text
}

// toConfirmation проводит диалог до сводки и возвращает ID сообщения со сводкой.
func (h *harness) toConfirmation() int {
	h.t.Helper()
	h.send("/order")
	h.send("iPhone 13 Pro")
	h.sendPhoto("AgADphoto", session.PhotoKindPhoto)
	h.send("Chisinau, str. Exemplu 1")
	st, ok := h.session().Step.(session.AwaitingConfirmation)
	require.True(h.t, ok, "expected awaiting confirmation, got %T", h.session().Step)
	return st.SummaryMessageID
}
