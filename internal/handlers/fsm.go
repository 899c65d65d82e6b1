package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"mycase/internal/session"
)

// ErrTransitionRejected - событие недопустимо в текущем состоянии.
// ErrTransitionRejected means the event is not allowed from the current state.
var ErrTransitionRejected = errors.New("transition rejected")

type event string

const (
	evStartOrder event = "start_order"
	evReset      event = "reset"
	evModel      event = "model"
	evAbort      event = "abort"
	evAttachment event = "attachment"
	evRejectText event = "reject_text"
	evCancel     event = "cancel"
	evAddress    event = "address"
	evConfirm    event = "confirm"
	evLookup     event = "lookup"
	evOrderID    event = "order_id"
)

func states(s ...session.State) []string {
	out := make([]string, 0, len(s))
	for _, st := range s {
		out = append(out, string(st))
	}
	return out
}

var (
	allStates = states(
		session.StateIdle, session.StateAwaitingModel, session.StateAwaitingPhoto, session.StateAwaitingAddress,
		session.StateAwaitingConfirmation, session.StateCompleted, session.StateCancelled, session.StateAwaitingOrderID,
	)
	inFlowStates = states(
		session.StateAwaitingModel, session.StateAwaitingPhoto, session.StateAwaitingAddress, session.StateAwaitingConfirmation,
	)
	// Completed и Cancelled не принимают событий диалога: из них выводят только
	// новый заказ, сброс и просмотр заказа.
	// Completed and Cancelled accept no flow events: only a new order, a reset and a lookup leave them.
	restingStates = states(session.StateIdle, session.StateCompleted, session.StateCancelled, session.StateAwaitingOrderID)
)

// flowEvents - граф переходов диалога оформления заказа.
// flowEvents is the transition graph of the conversational order flow.
var flowEvents = fsm.Events{
	{Name: string(evStartOrder), Src: allStates, Dst: string(session.StateAwaitingModel)},
	{Name: string(evReset), Src: allStates, Dst: string(session.StateIdle)},
	{Name: string(evModel), Src: states(session.StateAwaitingModel), Dst: string(session.StateAwaitingPhoto)},
	{Name: string(evAbort), Src: append(append([]string{}, inFlowStates...), string(session.StateAwaitingOrderID)), Dst: string(session.StateIdle)},
	{Name: string(evAttachment), Src: states(session.StateAwaitingPhoto), Dst: string(session.StateAwaitingAddress)},
	{Name: string(evRejectText), Src: states(session.StateAwaitingPhoto), Dst: string(session.StateAwaitingPhoto)},
	{Name: string(evCancel), Src: states(session.StateAwaitingPhoto, session.StateAwaitingConfirmation), Dst: string(session.StateCancelled)},
	{Name: string(evAddress), Src: states(session.StateAwaitingAddress), Dst: string(session.StateAwaitingConfirmation)},
	{Name: string(evConfirm), Src: states(session.StateAwaitingConfirmation), Dst: string(session.StateCompleted)},
	{Name: string(evLookup), Src: restingStates, Dst: string(session.StateAwaitingOrderID)},
	{Name: string(evOrderID), Src: states(session.StateAwaitingOrderID), Dst: string(session.StateIdle)},
}

// nextState проверяет событие по графу и возвращает целевое состояние.
// nextState checks the event against the graph and returns the destination state.
func nextState(ctx context.Context, from session.State, ev event) (session.State, error) {
	machine := fsm.NewFSM(string(from), flowEvents, nil)
	if !machine.Can(string(ev)) {
		return from, fmt.Errorf("%w: %s from %s", ErrTransitionRejected, ev, from)
	}
	if err := machine.Event(ctx, string(ev)); err != nil {
		// Петля (reject_text) - допустимый переход без смены состояния.
		// A self-loop (reject_text) is a valid transition that keeps the state.
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return from, fmt.Errorf("%s from %s: %w", ev, from, err)
		}
	}
	return session.State(machine.Current()), nil
}
