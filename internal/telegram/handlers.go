package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ViewFunc renders an HTML view on demand
type ViewFunc func(ctx context.Context) (string, error)

// Bot wraps the telegram bot with handlers. It only talks to the report chat.
type Bot struct {
	bot     *bot.Bot
	chatID  int64
	info    ViewFunc
	history ViewFunc
	log     *slog.Logger
}

const menuText = "<b>TON staking console</b> 🚀\n\n" +
	"Action reports from the console are posted here.\n" +
	"/info shows the current contract state, /history the latest actions."

// New creates a new telegram bot bound to chatID. Extra options are passed to
// the underlying client.
func New(token string, chatID int64, info, history ViewFunc, log *slog.Logger, extra ...bot.Option) (*Bot, error) {
	b := &Bot{
		chatID:  chatID,
		info:    info,
		history: history,
		log:     log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}
	opts = append(opts, extra...)

	tgBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/info", bot.MatchTypeExact, b.infoHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, b.historyHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// --- Handlers ---

func (b *Bot) allowed(chatID int64) bool {
	if chatID == b.chatID {
		return true
	}
	b.log.Warn("ignoring foreign chat", "chat_id", chatID)
	return false
}

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.allowed(update.Message.Chat.ID) {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, menuText, MainKeyboard())
}

func (b *Bot) infoHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.allowed(update.Message.Chat.ID) {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, b.render(ctx, b.info), RefreshKeyboard(cbInfo))
}

func (b *Bot) historyHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.allowed(update.Message.Chat.ID) {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, b.render(ctx, b.history), RefreshKeyboard(cbHistory))
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.allowed(update.Message.Chat.ID) {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, "🤷 Unknown command, try /info or /history", nil)
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	if cb.Message.Message == nil || !b.allowed(cb.Message.Message.Chat.ID) {
		return
	}

	switch cb.Data {
	case cbInfo:
		b.editMessage(ctx, cb.Message, b.render(ctx, b.info), RefreshKeyboard(cbInfo))
	case cbHistory:
		b.editMessage(ctx, cb.Message, b.render(ctx, b.history), RefreshKeyboard(cbHistory))
	case cbBack:
		b.editMessage(ctx, cb.Message, menuText, MainKeyboard())
	default:
		b.log.Warn("unknown callback", "data", cb.Data)
	}
}

func (b *Bot) render(ctx context.Context, view ViewFunc) string {
	if view == nil {
		return "❌ Not available"
	}
	text, err := view(ctx)
	if err != nil {
		b.log.Error("render view", "error", err)
		return "❌ Failed to read the contract, try again later"
	}
	return text
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendNotification posts text to the report chat
func (b *Bot) SendNotification(ctx context.Context, text string) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:    b.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}
