package telegram_api

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"
)

// Вид вложения. Пустой вид - неизвестен: сначала пробуем документ, потом фото.
// Attachment kinds. An empty kind is unknown: document is tried first, then photo.
const (
	AttachmentDocument = "document"
	AttachmentPhoto    = "photo"
)

// captionLimit - лимит подписи к медиа в Telegram.
const captionLimit = 1024

// Choice - inline-кнопка с данными коллбэка.
type Choice struct {
	Text string
	Data string
}

// Attachment - файл, уже загруженный в Telegram (file_id).
type Attachment struct {
	FileID string
	Kind   string
}

// OutgoingMessage - ответ бота: текст, необязательное вложение и кнопки.
// OutgoingMessage is a bot reply: text, an optional attachment and inline choices.
type OutgoingMessage struct {
	ChatID     int64
	Text       string
	Attachment *Attachment
	Choices    []Choice
}

func choicesMarkup(choices []Choice) *tgbotapi.InlineKeyboardMarkup {
	if len(choices) == 0 {
		return nil
	}
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Text, c.Data))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	return &markup
}

// Reply отправляет сообщение и возвращает его ID.
// Reply sends the message and returns its ID.
func (bc *BotClient) Reply(ctx context.Context, m OutgoingMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	markup := choicesMarkup(m.Choices)

	if m.Attachment == nil || m.Attachment.FileID == "" {
		return bc.sendText(m.ChatID, m.Text, markup)
	}

	// Длинный текст не помещается в подпись: шлем файл, затем текст с кнопками.
	// Long text does not fit into a caption: send the file, then the text with choices.
	if utf8.RuneCountInString(m.Text) > captionLimit {
		if _, err := bc.sendAttachment(m.ChatID, *m.Attachment, "", nil); err != nil {
			return 0, err
		}
		return bc.sendText(m.ChatID, m.Text, markup)
	}
	return bc.sendAttachment(m.ChatID, *m.Attachment, m.Text, markup)
}

func (bc *BotClient) sendText(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := bc.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (bc *BotClient) sendAttachment(chatID int64, a Attachment, caption string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	switch a.Kind {
	case AttachmentDocument:
		return bc.sendDocument(chatID, a.FileID, caption, markup)
	case AttachmentPhoto:
		return bc.sendPhoto(chatID, a.FileID, caption, markup)
	}

	// Вид не сохранен (старые заказы): file_id документа не подходит для sendPhoto и наоборот.
	// Kind unknown (older orders): a document file_id is rejected by sendPhoto and vice versa.
	id, err := bc.sendDocument(chatID, a.FileID, caption, markup)
	if err == nil {
		return id, nil
	}
	bc.log.Debug("document send failed, retrying as photo", zap.Int64("chat_id", chatID), zap.Error(err))
	return bc.sendPhoto(chatID, a.FileID, caption, markup)
}

func (bc *BotClient) sendDocument(chatID int64, fileID, caption string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		doc.ReplyMarkup = markup
	}
	sent, err := bc.Send(doc)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (bc *BotClient) sendPhoto(chatID int64, fileID, caption string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		photo.ReplyMarkup = markup
	}
	sent, err := bc.Send(photo)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// RemoveChoices убирает inline-кнопки у сообщения.
// Ошибка "message is not modified" не считается ошибкой: кнопок уже нет.
// RemoveChoices strips the inline keyboard from a message.
func (bc *BotClient) RemoveChoices(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if messageID == 0 {
		return nil
	}
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	_, err := bc.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty))
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// Delete удаляет сообщение. Уже удаленное сообщение не считается ошибкой.
// Delete removes a message. A message that is already gone is not an error.
func (bc *BotClient) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if messageID == 0 {
		return nil
	}
	_, err := bc.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	if err != nil && strings.Contains(err.Error(), "message to delete not found") {
		return nil
	}
	return err
}

// AnswerCallback отвечает на нажатие inline-кнопки (убирает "часики").
// AnswerCallback answers an inline button press.
func (bc *BotClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if callbackID == "" {
		return nil
	}
	_, err := bc.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
