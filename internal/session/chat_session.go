// Файл: internal/session/chat_session.go
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// State - имя состояния диалога оформления заказа.
// State names a step of the conversational order flow.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingModel        State = "awaiting_model"
	StateAwaitingPhoto        State = "awaiting_photo"
	StateAwaitingAddress      State = "awaiting_address"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCompleted            State = "completed"
	StateCancelled            State = "cancelled"
	// StateAwaitingOrderID - бот ждет номер заказа после /getorder.
	// StateAwaitingOrderID means the bot waits for an order number after /getorder.
	StateAwaitingOrderID State = "awaiting_order_id"
)

// Customer - автор заказа, фиксируется на шаге модели.
// Customer is the order's author, captured when the model is supplied.
type Customer struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
}

// Вид вложения: документ или сжатое фото.
// Attachment kinds: a document or a compressed photo.
const (
	PhotoKindDocument = "document"
	PhotoKindPhoto    = "photo"
)

// Photo - ссылка на файл в Telegram.
type Photo struct {
	FileID string `json:"file_id"`
	Kind   string `json:"kind"`
}

// Step - текущий шаг вместе с уже собранными данными.
// Каждый шаг несет ровно те поля, которые были собраны до него.
// Step is the current step together with the data collected so far.
// Each step carries exactly the fields produced by the transitions before it.
type Step interface {
	State() State
	isStep()
}

type Idle struct{}

type AwaitingModel struct{}

type AwaitingPhoto struct {
	Customer Customer `json:"customer"`
	Model    string   `json:"model"`
}

type AwaitingAddress struct {
	Customer Customer `json:"customer"`
	Model    string   `json:"model"`
	Photo    Photo    `json:"photo"`
}

type AwaitingConfirmation struct {
	Customer         Customer `json:"customer"`
	Model            string   `json:"model"`
	Photo            Photo    `json:"photo"`
	Address          string   `json:"address"`
	SummaryMessageID int      `json:"summary_message_id"`
}

type Completed struct {
	OrderID int64 `json:"order_id"`
}

type Cancelled struct{}

type AwaitingOrderID struct{}

func (Idle) State() State                 { return StateIdle }
func (AwaitingModel) State() State        { return StateAwaitingModel }
func (AwaitingPhoto) State() State        { return StateAwaitingPhoto }
func (AwaitingAddress) State() State      { return StateAwaitingAddress }
func (AwaitingConfirmation) State() State { return StateAwaitingConfirmation }
func (Completed) State() State            { return StateCompleted }
func (Cancelled) State() State            { return StateCancelled }
func (AwaitingOrderID) State() State      { return StateAwaitingOrderID }

func (Idle) isStep()                 {}
func (AwaitingModel) isStep()        {}
func (AwaitingPhoto) isStep()        {}
func (AwaitingAddress) isStep()      {}
func (AwaitingConfirmation) isStep() {}
func (Completed) isStep()            {}
func (Cancelled) isStep()            {}
func (AwaitingOrderID) isStep()      {}

// ChatSession - рабочая память бота для одного чата.
// ChatSession is the bot's working memory for one chat.
type ChatSession struct {
	ChatID    int64
	Step      Step
	UpdatedAt time.Time
}

// NewChatSession возвращает пустую сессию в состоянии Idle.
func NewChatSession(chatID int64) ChatSession {
	return ChatSession{ChatID: chatID, Step: Idle{}}
}

// State возвращает текущее состояние; nil-шаг считается Idle.
func (s ChatSession) State() State {
	if s.Step == nil {
		return StateIdle
	}
	return s.Step.State()
}

// InFlow сообщает, идет ли сейчас оформление заказа.
// InFlow reports whether an order flow is in progress.
func (s ChatSession) InFlow() bool {
	switch s.State() {
	case StateAwaitingModel, StateAwaitingPhoto, StateAwaitingAddress, StateAwaitingConfirmation:
		return true
	}
	return false
}

// envelope - формат хранения сессии во внешнем хранилище (Redis).
// envelope is the stored form of a session in external backends (Redis).
type envelope struct {
	ChatID    int64           `json:"chat_id"`
	State     State           `json:"state"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Marshal кодирует сессию в JSON с тегом состояния.
func Marshal(s ChatSession) ([]byte, error) {
	step := s.Step
	if step == nil {
		step = Idle{}
	}
	data, err := json.Marshal(step)
	if err != nil {
		return nil, fmt.Errorf("encode step %s: %w", step.State(), err)
	}
	return json.Marshal(envelope{ChatID: s.ChatID, State: step.State(), Data: data, UpdatedAt: s.UpdatedAt})
}

// Unmarshal восстанавливает сессию; неизвестное состояние - ошибка.
// Unmarshal decodes a session; an unknown state is an error.
func Unmarshal(b []byte) (ChatSession, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return ChatSession{}, fmt.Errorf("decode session: %w", err)
	}

	var (
		step Step
		err  error
	)
	switch env.State {
	case StateIdle, "":
		step = Idle{}
	case StateAwaitingModel:
		step = AwaitingModel{}
	case StateAwaitingPhoto:
		step, err = decodeStep[AwaitingPhoto](env.Data)
	case StateAwaitingAddress:
		step, err = decodeStep[AwaitingAddress](env.Data)
	case StateAwaitingConfirmation:
		step, err = decodeStep[AwaitingConfirmation](env.Data)
	case StateCompleted:
		step, err = decodeStep[Completed](env.Data)
	case StateCancelled:
		step = Cancelled{}
	case StateAwaitingOrderID:
		step = AwaitingOrderID{}
	default:
		return ChatSession{}, fmt.Errorf("decode session: unknown state %q", env.State)
	}
	if err != nil {
		return ChatSession{}, fmt.Errorf("decode session step %s: %w", env.State, err)
	}

	return ChatSession{ChatID: env.ChatID, Step: step, UpdatedAt: env.UpdatedAt}, nil
}

func decodeStep[T Step](data json.RawMessage) (T, error) {
	var step T
	if len(data) == 0 {
		return step, nil
	}
	err := json.Unmarshal(data, &step)
	return step, err
}
