package constants

import "time"

// Команды бота (без ведущего "/")
// Bot commands (without the leading "/")
const (
	CMD_START     = "start"
	CMD_INFO      = "info"
	CMD_ORDER     = "order"
	CMD_MY_ORDERS = "my_orders"
	CMD_CLEAR     = "clear"
	CMD_GET_ORDER = "getorder"
	CMD_DELETE    = "delete"
)

// Данные inline-кнопок
// Inline button callback data
const (
	CALLBACK_CONFIRM = "confirm"
	CALLBACK_CANCEL  = "cancel"
)

const (
	// COMMAND_MARKER - признак команды в тексте сообщения.
	COMMAND_MARKER = "/"
	// CANCEL_WORD - слово отмены на шаге фото (регистр не важен).
	CANCEL_WORD = "cancel"
	// DEEP_LINK_CHECK_PREFIX - аргумент /start для просмотра заказа: check_<id>.
	DEEP_LINK_CHECK_PREFIX = "check_"
	// Ограничения длины полей заказа, по ширине колонок в БД.
	CUSTOMER_NAME_MAX_RUNES = 100
	PHONE_MODEL_MAX_RUNES   = 128
	ADDRESS_MAX_RUNES       = 500
	BOT_USER_NAME_MAX_RUNES = 128
	// PERSONAL_TEXT_MAX_RUNES - максимальная длина надписи на готовом дизайне.
	PERSONAL_TEXT_MAX_RUNES = 30
	// UPLOAD_CHUNK_SIZE - размер блока при записи загруженных файлов.
	UPLOAD_CHUNK_SIZE = 1 << 20
	// ORDER_DATE_LAYOUT - формат даты в сообщениях.
	ORDER_DATE_LAYOUT = "02.01.2006 15:04"
)

// DIGEST_WINDOW - период, за который считаются необработанные заказы в дайджесте.
const DIGEST_WINDOW = 24 * time.Hour

// Тексты кнопок
const (
	BTN_CONFIRM = "✅ Подтвердить"
	BTN_CANCEL  = "❌ Отменить"
)

// Сообщения пользователю (HTML parse mode)
// User-facing messages (HTML parse mode)
const (
	MSG_WELCOME = "👋 Привет, %s!\n\n" +
		"Я помогу оформить чехол с вашим дизайном.\n\n" +
		"/order - оформить заказ\n" +
		"/my_orders - мои заказы\n" +
		"/info - цены и доставка\n" +
		"/clear - сбросить оформление"
	MSG_INFO = "<b>💰 Цены</b>\n\n" +
		" •  Чехол с вашим дизайном: %s\n" +
		" •  Доставка курьером: %s\n\n" +
		"Итого: <b>%s</b>\n\n" +
		"Оформить заказ: /order"

	MSG_ASK_MODEL        = "📱 Укажите модель телефона (например, iPhone 13 Pro):"
	MSG_MODEL_IS_COMMAND = "⚠️ Ожидалась модель телефона, а пришла команда. Оформление сброшено, начните заново: /order"
	MSG_ASK_PHOTO        = "🖼 Отправьте фото или файл с дизайном.\nЧтобы отменить заказ, напишите <code>cancel</code>."
	MSG_PHOTO_NOT_TEXT   = "⚠️ Пришлите фото или файл, а не текст или ссылку.\nЧтобы отменить заказ, напишите <code>cancel</code>."
	MSG_ASK_ADDRESS      = "📍 Укажите адрес доставки:"
	MSG_ADDRESS_IS_EMPTY = "⚠️ Адрес нужно прислать текстом."
	MSG_MODEL_TOO_LONG   = "⚠️ Слишком длинное название модели (до %d символов). Укажите модель короче:"
	MSG_ADDRESS_TOO_LONG = "⚠️ Слишком длинный адрес (до %d символов). Укажите адрес короче:"
	MSG_USE_BUTTONS      = "👆 Подтвердите или отмените заказ кнопками под сводкой."
	MSG_PHOTO_MISSING    = "(фото не найдено)"

	MSG_ORDER_CREATED     = "✅ Заказ <b>#%d</b> оформлен!\n\nВаши заказы: /my_orders\nНовый заказ: /order"
	MSG_ORDER_SAVE_FAILED = "⚠️ Не удалось сохранить заказ. Попробуйте нажать «Подтвердить» ещё раз чуть позже."
	MSG_ORDER_CANCELLED   = "🗑 Заказ удалён."
	MSG_FLOW_RESET        = "🔄 Оформление сброшено. Новый заказ: /order"
	MSG_FLOW_ABORTED      = "⚠️ Оформление заказа прервано командой. Начните заново: /order"
	MSG_FLOW_INACTIVE     = "Этот заказ уже неактивен."

	MSG_RETURNING_ORDERS  = "\n\n📦 Ваших заказов: %d. Список: /my_orders"
	MSG_NO_ORDERS         = "📭 Заказы не найдены."
	MSG_ENTER_ORDER_ID    = "🔎 Введите номер заказа:"
	MSG_INVALID_ID_FORMAT = "⚠️ Ошибка, введите номер заказа ещё раз (только цифры)."
	MSG_INVALID_ORDER_ID  = "❌ Неверный номер заказа."

	MSG_ADMIN_REFUSAL = "⛔ NO WAY. Ваш ID: <code>%d</code>"
	MSG_ADMIN_DELETED = "✅ SUCCESS. Удалено заказов: %d"

	MSG_GENERIC_ERROR = "❌ Что-то пошло не так. Попробуйте ещё раз или начните заново: /order"
	MSG_UNKNOWN_INPUT = "🤔 Не понял. Оформить заказ: /order, ваши заказы: /my_orders"

	MSG_DESIGN_WITHOUT_IMAGE = "⚠️ Дизайн без изображения"
)
