package handlers

import (
	"context"

	"mycase/internal/constants"
	"mycase/internal/session"
)

type handlerFunc func(ctx context.Context, upd Update, sess session.ChatSession) error

// Router выбирает обработчик по команде, состоянию диалога или данным коллбэка.
// Router picks a handler by command name, flow state or callback data.
type Router struct {
	commands  map[string]handlerFunc
	global    map[string]bool
	states    map[session.State]handlerFunc
	callbacks map[string]handlerFunc
	fallback  handlerFunc
}

func NewRouter() *Router {
	return &Router{
		commands:  make(map[string]handlerFunc),
		global:    make(map[string]bool),
		states:    make(map[session.State]handlerFunc),
		callbacks: make(map[string]handlerFunc),
	}
}

// Command регистрирует команду. Во время оформления заказа команда сначала прерывает диалог.
func (r *Router) Command(name string, h handlerFunc) {
	r.commands[name] = h
}

// GlobalCommand регистрирует команду, которая сама управляет диалогом и не прерывает его.
// GlobalCommand registers a command that drives the flow itself and never aborts it.
func (r *Router) GlobalCommand(name string, h handlerFunc) {
	r.commands[name] = h
	r.global[name] = true
}

func (r *Router) State(s session.State, h handlerFunc) {
	r.states[s] = h
}

func (r *Router) Callback(data string, h handlerFunc) {
	r.callbacks[data] = h
}

// Fallback - обработчик для всего, что не нашло маршрута.
func (r *Router) Fallback(h handlerFunc) {
	r.fallback = h
}

func (r *Router) isGlobal(name string) bool {
	return r.global[name]
}

func (r *Router) lookup(upd Update, state session.State) (handlerFunc, bool) {
	switch {
	case upd.Callback != nil:
		h, ok := r.callbacks[upd.Callback.Data]
		return h, ok
	case upd.IsCommand():
		h, ok := r.commands[upd.Command]
		return h, ok
	default:
		h, ok := r.states[state]
		return h, ok
	}
}

// routes - таблица маршрутов бота.
func (bh *BotHandler) routes() *Router {
	r := NewRouter()

	r.GlobalCommand(constants.CMD_ORDER, bh.handleStartOrder)
	r.GlobalCommand(constants.CMD_CLEAR, bh.handleReset)

	r.Command(constants.CMD_START, bh.handleStart)
	r.Command(constants.CMD_INFO, bh.handleInfo)
	r.Command(constants.CMD_MY_ORDERS, bh.handleMyOrders)
	r.Command(constants.CMD_GET_ORDER, bh.handleGetOrder)
	r.Command(constants.CMD_DELETE, bh.handleDeleteAll)

	r.State(session.StateAwaitingModel, bh.handleModel)
	r.State(session.StateAwaitingPhoto, bh.handlePhoto)
	r.State(session.StateAwaitingAddress, bh.handleAddress)
	r.State(session.StateAwaitingConfirmation, bh.handleTextWhileConfirming)
	r.State(session.StateAwaitingOrderID, bh.handleOrderID)

	r.Callback(constants.CALLBACK_CONFIRM, bh.handleConfirm)
	r.Callback(constants.CALLBACK_CANCEL, bh.handleCancel)

	r.Fallback(bh.handleUnknown)
	return r
}
