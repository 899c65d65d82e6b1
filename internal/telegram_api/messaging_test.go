package telegram_api

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	sendErr   func(c tgbotapi.Chattable) error
	requestEr error
	nextID    int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestEr != nil {
		return nil, f.requestEr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestClient(a *fakeAPI) *BotClient {
	return newClientWithAPI(a, zap.NewNop())
}

func TestReplyTextWithChoices(t *testing.T) {
	a := &fakeAPI{}
	bc := newTestClient(a)

	id, err := bc.Reply(context.Background(), OutgoingMessage{
		ChatID:  42,
		Text:    "summary",
		Choices: []Choice{{Text: "ok", Data: "confirm"}, {Text: "no", Data: "cancel"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.Len(t, a.sent, 1)
	msg, ok := a.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)

	markup, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "confirm", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestReplyUnknownKindFallsBackToPhoto(t *testing.T) {
	a := &fakeAPI{sendErr: func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.DocumentConfig); ok {
			return errors.New("Bad Request: wrong file identifier")
		}
		return nil
	}}
	bc := newTestClient(a)

	_, err := bc.Reply(context.Background(), OutgoingMessage{
		ChatID:     1,
		Text:       "caption",
		Attachment: &Attachment{FileID: "AgAD"},
	})
	require.NoError(t, err)
	require.Len(t, a.sent, 1)
	photo, ok := a.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", photo.Caption)
}

func TestReplyKnownKindDoesNotFallBack(t *testing.T) {
	a := &fakeAPI{sendErr: func(c tgbotapi.Chattable) error {
		return errors.New("boom")
	}}
	bc := newTestClient(a)

	_, err := bc.Reply(context.Background(), OutgoingMessage{
		ChatID:     1,
		Text:       "caption",
		Attachment: &Attachment{FileID: "BQAD", Kind: AttachmentDocument},
	})
	require.Error(t, err)
	assert.Empty(t, a.sent)
}

func TestReplyLongCaptionIsSplit(t *testing.T) {
	a := &fakeAPI{}
	bc := newTestClient(a)

	text := strings.Repeat("я", captionLimit+1)
	id, err := bc.Reply(context.Background(), OutgoingMessage{
		ChatID:     7,
		Text:       text,
		Attachment: &Attachment{FileID: "AgAD", Kind: AttachmentPhoto},
		Choices:    []Choice{{Text: "ok", Data: "confirm"}},
	})
	require.NoError(t, err)
	require.Len(t, a.sent, 2)
	assert.Equal(t, 2, id, "the text message carries the choices and its ID is returned")

	photo := a.sent[0].(tgbotapi.PhotoConfig)
	assert.Empty(t, photo.Caption)
	assert.Nil(t, photo.ReplyMarkup)

	msg := a.sent[1].(tgbotapi.MessageConfig)
	assert.Equal(t, text, msg.Text)
	assert.NotNil(t, msg.ReplyMarkup)
}

func TestRemoveChoicesIgnoresNotModified(t *testing.T) {
	a := &fakeAPI{requestEr: errors.New("Bad Request: message is not modified")}
	bc := newTestClient(a)

	require.NoError(t, bc.RemoveChoices(context.Background(), 1, 10))
	require.Len(t, a.requests, 1)
	edit, ok := a.requests[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 10, edit.MessageID)
}

func TestDeleteIgnoresMissingMessage(t *testing.T) {
	a := &fakeAPI{requestEr: errors.New("Bad Request: message to delete not found")}
	bc := newTestClient(a)
	assert.NoError(t, bc.Delete(context.Background(), 1, 10))

	a.requestEr = errors.New("Forbidden: bot was blocked by the user")
	assert.Error(t, bc.Delete(context.Background(), 1, 10))
}

func TestZeroIDsAreNoops(t *testing.T) {
	a := &fakeAPI{}
	bc := newTestClient(a)

	require.NoError(t, bc.Delete(context.Background(), 1, 0))
	require.NoError(t, bc.RemoveChoices(context.Background(), 1, 0))
	require.NoError(t, bc.AnswerCallback(context.Background(), "", "x"))
	assert.Empty(t, a.requests)
}

func TestReplyCancelledContext(t *testing.T) {
	a := &fakeAPI{}
	bc := newTestClient(a)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bc.Reply(ctx, OutgoingMessage{ChatID: 1, Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, a.sent)
}
