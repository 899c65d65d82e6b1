package handlers

import (
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"mycase/internal/constants"
	"mycase/internal/session"
	"mycase/internal/utils"
)

// Callback - нажатие inline-кнопки.
type Callback struct {
	ID        string
	Data      string
	MessageID int // сообщение с кнопкой / message carrying the button
}

// Update - входящее событие, приведенное к тому, что нужно диалогу.
// Update is an inbound event reduced to what the conversation needs.
type Update struct {
	ID          int
	ChatID      int64
	MessageID   int
	From        session.Customer
	Language    string
	Text        string
	Command     string // без "/" и "@bot" / without "/" and "@bot"
	CommandArgs string
	Attachment  *session.Photo
	Callback    *Callback
}

// IsCommand сообщает, начинается ли текст с маркера команды.
func (u Update) IsCommand() bool {
	return u.Callback == nil && strings.HasPrefix(u.Text, constants.COMMAND_MARKER)
}

// Kind - вид события для логов.
func (u Update) Kind() string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.IsCommand():
		return "command"
	case u.Attachment != nil:
		return "attachment"
	default:
		return "text"
	}
}

// FromTelegram конвертирует tgbotapi.Update. false - событие боту не интересно.
// FromTelegram converts a tgbotapi.Update. false means the bot ignores the event.
func FromTelegram(u tgbotapi.Update) (Update, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Message == nil || q.From == nil {
			return Update{}, false
		}
		return Update{
			ID:     u.UpdateID,
			ChatID: q.Message.Chat.ID,
			From:   customerFrom(q.From),
			Callback: &Callback{
				ID:        q.ID,
				Data:      q.Data,
				MessageID: q.Message.MessageID,
			},
		}, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil {
			return Update{}, false
		}
		upd := Update{
			ID:        u.UpdateID,
			ChatID:    m.Chat.ID,
			MessageID: m.MessageID,
			From:      customerFrom(m.From),
			Language:  m.From.LanguageCode,
			Text:      strings.TrimSpace(m.Text),
		}
		// Документ важнее фото: так сохраняется оригинал без сжатия.
		// A document wins over a photo: it keeps the uncompressed original.
		if m.Document != nil {
			upd.Attachment = &session.Photo{FileID: m.Document.FileID, Kind: session.PhotoKindDocument}
		} else if id := utils.LargestPhotoID(m.Photo); id != "" {
			upd.Attachment = &session.Photo{FileID: id, Kind: session.PhotoKindPhoto}
		}
		if upd.IsCommand() {
			upd.Command, upd.CommandArgs = parseCommand(upd.Text)
		}
		return upd, true
	}
	return Update{}, false
}

func customerFrom(u *tgbotapi.User) session.Customer {
	return session.Customer{
		UserID:      u.ID,
		DisplayName: utils.DisplayName(u.FirstName, u.LastName, u.UserName),
		Username:    u.UserName,
	}
}

// parseCommand разбирает "/cmd@bot args" на имя команды и аргументы.
func parseCommand(text string) (string, string) {
	text = strings.TrimPrefix(text, constants.COMMAND_MARKER)
	name, args, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}
