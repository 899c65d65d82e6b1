package formatters

import (
	"fmt"
	"strings"

	"mycase/internal/constants"
	"mycase/internal/models"
	"mycase/internal/utils"
)

const (
	separator = "─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─"
)

var kindDisplayMap = map[models.OrderKind]string{
	models.OrderKindBot:    "Telegram-бот",
	models.OrderKindCustom: "Свой дизайн",
	models.OrderKindTermos: "Термос",
	models.OrderKindReady:  "Готовый дизайн",
}

// KindDisplay - название источника заказа для людей.
func KindDisplay(kind models.OrderKind) string {
	if name, ok := kindDisplayMap[kind]; ok {
		return name
	}
	return string(kind)
}

// OrderSummary форматирует сводку заказа на шаге подтверждения.
// Если фото нет, это отмечается в сводке, но заказ можно подтвердить.
func OrderSummary(model, address string, hasPhoto bool, quote utils.Quote) string {
	var summaryBuilder strings.Builder

	summaryBuilder.WriteString("📋 <b>ВАШ ЗАКАЗ:</b>\n")
	summaryBuilder.WriteString(fmt.Sprintf(" •  Модель: %s\n", utils.SanitizeText(model)))
	summaryBuilder.WriteString(fmt.Sprintf(" •  Адрес: %s\n", utils.SanitizeText(address)))
	if !hasPhoto {
		summaryBuilder.WriteString(fmt.Sprintf(" •  Фото: %s\n", constants.MSG_PHOTO_MISSING))
	}
	summaryBuilder.WriteString("\n💰 <b>СТОИМОСТЬ:</b>\n")
	summaryBuilder.WriteString(fmt.Sprintf(" •  Чехол: %s\n", quote.Format(quote.Case)))
	summaryBuilder.WriteString(fmt.Sprintf(" •  Доставка: %s\n", quote.Format(quote.Delivery)))
	summaryBuilder.WriteString(fmt.Sprintf(" •  Итого: <b>%s</b>\n", quote.Format(quote.Total())))

	header := "✨ <b>Пожалуйста, проверьте заказ</b>"
	footer := "Всё верно? Нажмите «Подтвердить»."

	return fmt.Sprintf("%s\n%s\n%s%s\n%s", header, separator, summaryBuilder.String(), separator, footer)
}

// OrderDetails форматирует заказ для просмотра владельцем (или админом).
// OrderDetails renders an order for its owner (or the admin).
func OrderDetails(order models.Order) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📦 <b>Заказ #%d</b>\n%s\n", order.ID, separator))
	b.WriteString(fmt.Sprintf(" •  Дата: %s\n", utils.FormatOrderDate(order.CreatedAt)))
	b.WriteString(fmt.Sprintf(" •  Тип: %s\n", kindDisplayMap[order.Kind]))
	if order.PhoneModel != "" {
		b.WriteString(fmt.Sprintf(" •  Модель: %s\n", utils.SanitizeText(order.PhoneModel)))
	}
	if order.Brand != "" {
		b.WriteString(fmt.Sprintf(" •  Бренд: %s\n", utils.SanitizeText(order.Brand)))
	}
	b.WriteString(fmt.Sprintf(" •  Адрес: %s\n", utils.SanitizeText(order.Address)))
	if order.PersonalText.Valid {
		b.WriteString(fmt.Sprintf(" •  Надпись: %s\n", utils.SanitizeText(order.PersonalText.String)))
	}
	if !order.AttachmentRef.Valid && !order.DesignURL.Valid {
		b.WriteString(fmt.Sprintf(" •  Фото: %s\n", constants.MSG_PHOTO_MISSING))
	}
	b.WriteString(fmt.Sprintf(" •  Статус: %s\n", order.Status))
	return b.String()
}

// OrdersList - список заказов пользователя со ссылками на просмотр.
// OrdersList renders the user's orders, each addressable by a deep link.
func OrdersList(orders []models.Order, botUsername string) string {
	if len(orders) == 0 {
		return constants.MSG_NO_ORDERS
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Ваши заказы:</b>\n\n")
	for _, o := range orders {
		label := fmt.Sprintf("#%d", o.ID)
		if link, err := utils.OrderDeepLink(botUsername, o.ID); err == nil {
			label = fmt.Sprintf(`<a href="%s">#%d</a>`, link, o.ID)
		}
		model := o.PhoneModel
		if model == "" {
			model = kindDisplayMap[o.Kind]
		}
		b.WriteString(fmt.Sprintf(" •  %s %s - %s\n", label, utils.FormatOrderDate(o.CreatedAt), utils.SanitizeText(model)))
	}
	return b.String()
}

// AdminNewOrder - уведомление администратору о заказе из бота.
// AdminNewOrder is the admin notice for an order placed through the bot.
func AdminNewOrder(order models.Order, username string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🆕 <b>Новый заказ #%d</b>\n%s\n", order.ID, separator))
	b.WriteString(fmt.Sprintf(" •  Клиент: %s (%s)\n",
		utils.SanitizeText(order.CustomerName), utils.MentionUsername(username, "без username")))
	if order.UserID.Valid {
		b.WriteString(fmt.Sprintf(" •  Telegram ID: <code>%d</code>\n", order.UserID.Int64))
	}
	b.WriteString(fmt.Sprintf(" •  Модель: %s\n", utils.SanitizeText(order.PhoneModel)))
	b.WriteString(fmt.Sprintf(" •  Адрес: %s\n", utils.SanitizeText(order.Address)))
	if !order.AttachmentRef.Valid {
		b.WriteString(fmt.Sprintf(" •  Фото: %s\n", constants.MSG_PHOTO_MISSING))
	}
	return b.String()
}

// StaffOrderNotice - сообщение в чат сотрудников о заказе с сайта.
// Текст зависит от типа заказа; design может быть nil.
// StaffOrderNotice renders the staff chat message for a web order.
func StaffOrderNotice(order models.Order, design *models.Design) string {
	var b strings.Builder

	switch order.Kind {
	case models.OrderKindTermos:
		b.WriteString(fmt.Sprintf("🥤 <b>Новый заказ на термос #%d</b>\n", order.ID))
	case models.OrderKindReady:
		b.WriteString(fmt.Sprintf("🎨 <b>Заказ готового дизайна #%d</b>\n", order.ID))
	default:
		b.WriteString(fmt.Sprintf("📱 <b>Новый заказ #%d</b>\n", order.ID))
	}
	b.WriteString(separator + "\n")

	b.WriteString(fmt.Sprintf(" •  Имя: %s\n", utils.SanitizeText(order.CustomerName)))
	b.WriteString(fmt.Sprintf(" •  Телефон: %s\n", utils.SanitizeText(order.PhoneNumber)))
	b.WriteString(fmt.Sprintf(" •  Адрес: %s\n", utils.SanitizeText(order.Address)))
	if order.Brand != "" {
		b.WriteString(fmt.Sprintf(" •  Бренд: %s\n", utils.SanitizeText(order.Brand)))
	}
	if order.PhoneModel != "" {
		b.WriteString(fmt.Sprintf(" •  Модель: %s\n", utils.SanitizeText(order.PhoneModel)))
	}
	if design != nil {
		b.WriteString(fmt.Sprintf(" •  Дизайн: %s (<code>%s</code>)\n", utils.SanitizeText(design.Title), design.Slug))
	}
	if order.PersonalText.Valid {
		b.WriteString(fmt.Sprintf(" •  Надпись: %s\n", utils.SanitizeText(order.PersonalText.String)))
	}
	if order.Comment.Valid {
		b.WriteString(fmt.Sprintf(" •  Комментарий: %s\n", utils.SanitizeText(order.Comment.String)))
	}
	return b.String()
}

// PendingDigest - ежедневная сводка необработанных заказов.
func PendingDigest(count int, hours int) string {
	if count == 0 {
		return fmt.Sprintf("📊 За последние %d ч. новых заказов нет.", hours)
	}
	return fmt.Sprintf("📊 За последние %d ч. необработанных заказов: <b>%d</b>", hours, count)
}
