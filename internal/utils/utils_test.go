package utils

import (
	"strings"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mycase/internal/config"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+37368109777", true},
		{"068109777", true},
		{"068 10-97(77)", true},
		{"12345", false},
		{"+1234567890123456", false},
		{"68a109777", false},
		{"++37368109777", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidPhone(NormalizePhone(tt.in)), tt.in)
	}
}

func TestParseOrderID(t *testing.T) {
	id, err := ParseOrderID(" #42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "-3", "0", "12abc"} {
		_, err := ParseOrderID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTrimRunes(t *testing.T) {
	assert.Equal(t, "Ana", TrimRunes("Ana", 30))
	assert.Equal(t, "Мари", TrimRunes("Мария", 4))
	assert.Len(t, []rune(TrimRunes(strings.Repeat("ș", 40), 30)), 30)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Ion_Popescu", SafeName("  Ion Popescu "))
	assert.Equal(t, "Ana-Mariaetc", SafeName("Ana-Maria/../../etc"))
	assert.Equal(t, "client", SafeName("../.."))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Chisinau, str. Exemplu 1", SanitizeText(" Chisinau, str. Exemplu 1 "))
	assert.Equal(t, "bold", SanitizeText("<b>bold</b>"))
	assert.Equal(t, "a &amp; b", SanitizeText("a & b"))
}

func TestQuote(t *testing.T) {
	q, err := NewQuote(config.PricingConfig{Case: "200", Delivery: "50", Currency: "MDL"})
	require.NoError(t, err)
	assert.Equal(t, "250 MDL", q.Format(q.Total()))

	q, err = NewQuote(config.PricingConfig{Case: "199.5", Delivery: "0", Currency: "MDL"})
	require.NoError(t, err)
	assert.Equal(t, "199.50 MDL", q.Format(q.Total()))

	_, err = NewQuote(config.PricingConfig{Case: "two hundred", Delivery: "50"})
	assert.Error(t, err)
}

func TestOrderDeepLink(t *testing.T) {
	link, err := OrderDeepLink("mycase_bot", 17)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/mycase_bot?start=check_17", link)

	_, err = OrderDeepLink("", 17)
	assert.Error(t, err)

	png, err := OrderQRCode("mycase_bot", 17, 128)
	require.NoError(t, err)
	assert.True(t, len(png) > 8 && string(png[1:4]) == "PNG")
}

func TestLargestPhotoID(t *testing.T) {
	photos := []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 960},
		{FileID: "medium", Width: 320, Height: 240},
	}
	assert.Equal(t, "large", LargestPhotoID(photos))
	assert.Equal(t, "", LargestPhotoID(nil))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ion Popescu", DisplayName("Ion", "Popescu", "ion"))
	assert.Equal(t, "@ion", DisplayName("", "", "ion"))
	assert.Equal(t, "клиент", DisplayName(" ", "", ""))
}
