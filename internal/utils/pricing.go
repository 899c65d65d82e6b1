package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mycase/internal/config"
)

// Quote - фиксированная цена заказа: чехол + доставка.
// Quote is the fixed order price: case plus courier delivery.
type Quote struct {
	Case     decimal.Decimal
	Delivery decimal.Decimal
	Currency string
}

// NewQuote разбирает цены из конфигурации.
func NewQuote(cfg config.PricingConfig) (Quote, error) {
	casePrice, err := decimal.NewFromString(cfg.Case)
	if err != nil {
		return Quote{}, fmt.Errorf("некорректная цена чехла %q: %w", cfg.Case, err)
	}
	delivery, err := decimal.NewFromString(cfg.Delivery)
	if err != nil {
		return Quote{}, fmt.Errorf("некорректная цена доставки %q: %w", cfg.Delivery, err)
	}
	if casePrice.IsNegative() || delivery.IsNegative() {
		return Quote{}, fmt.Errorf("цены не могут быть отрицательными")
	}
	return Quote{Case: casePrice, Delivery: delivery, Currency: cfg.Currency}, nil
}

// Total - итоговая сумма.
func (q Quote) Total() decimal.Decimal {
	return q.Case.Add(q.Delivery)
}

// Format печатает сумму с валютой: "250 MDL", "199.50 MDL".
func (q Quote) Format(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.StringFixed(0) + " " + q.Currency
	}
	return amount.StringFixed(2) + " " + q.Currency
}
