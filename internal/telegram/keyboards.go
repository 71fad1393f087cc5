package telegram

import (
	"github.com/go-telegram/bot/models"
)

const (
	cbInfo    = "info"
	cbHistory = "history"
	cbBack    = "back"
)

// MainKeyboard returns the main menu keyboard
func MainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📊 Contract info", CallbackData: cbInfo},
				{Text: "🗂 History", CallbackData: cbHistory},
			},
		},
	}
}

// RefreshKeyboard re-requests the view identified by data
func RefreshKeyboard(data string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔄 Refresh", CallbackData: data},
			},
			{
				{Text: "⬅️ Back", CallbackData: cbBack},
			},
		},
	}
}
