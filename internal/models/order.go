package models

import (
	"time"
)

// OrderKind - источник заказа.
// OrderKind tells where an order came from.
type OrderKind string

const (
	OrderKindBot    OrderKind = "bot"    // диалог в Telegram / Telegram conversation
	OrderKindCustom OrderKind = "custom" // свой дизайн с сайта / custom upload from the web form
	OrderKindTermos OrderKind = "termos" // персонализированный термос / personalised thermos
	OrderKindReady  OrderKind = "ready"  // готовый дизайн из каталога / catalog design
)

const OrderStatusPending = "pending"

// Order - сохраненный заказ. Статус этим сервисом не меняется.
// Order is a persisted order. Status is never advanced by this service.
type Order struct {
	ID            int64      `db:"id" json:"id"`
	UserID        NullInt64  `db:"user_id" json:"user_id"` // Telegram ID владельца / owner's Telegram ID
	CustomerName  string     `db:"customer_name" json:"customer_name"`
	PhoneNumber   string     `db:"phone_number" json:"phone_number"`
	Address       string     `db:"address" json:"address"`
	Brand         string     `db:"brand" json:"brand"`
	PhoneModel    string     `db:"phone_model" json:"phone_model"`
	AttachmentRef NullString `db:"attachment_ref" json:"attachment_ref"` // file_id Telegram или путь к файлу / Telegram file_id or a local path
	DesignURL     NullString `db:"design_url" json:"design_url"`
	Kind          OrderKind  `db:"order_kind" json:"order_kind"`
	DesignID      NullInt64  `db:"design_id" json:"design_id"`
	PersonalText  NullString `db:"personal_text" json:"personal_text"`
	Comment       NullString `db:"comment" json:"comment"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// OrderPage - страница заказов для админки.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Total  int     `json:"total"`
}
