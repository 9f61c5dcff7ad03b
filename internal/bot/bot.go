package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabpack/internal/session"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the subset of tgbotapi.BotAPI the handlers use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Reminder sends a due reminder on demand and reports how many cards are due
type Reminder interface {
	RunManualCheck() (int, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	mu       sync.RWMutex
	sender   sender
	reminder Reminder

	config  Config
	manager *session.Manager
	stop    chan struct{}
	once    sync.Once
}

// New creates a new bot instance
func New(cfg Config, manager *session.Manager) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if cfg.OwnerChatID == 0 {
		return nil, errors.New("OWNER_CHAT_ID is required")
	}
	if manager == nil {
		return nil, errors.New("session manager is required")
	}
	def := DefaultConfig()
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = def.ListLimit
	}
	return &Bot{config: cfg, manager: manager, stop: make(chan struct{})}, nil
}

// Start authorizes against Telegram and processes updates until ctx is
// cancelled or Stop is called. Updates are handled one at a time so every
// state mutation happens in arrival order.
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.config.Token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}

	b.setSender(botAPI)
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			return nil
		case <-b.stop:
			botAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.once.Do(func() {
		close(b.stop)
		log.Println("Bot stopped")
	})
}

// SetReminder enables the /remind command
func (b *Bot) SetReminder(r Reminder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reminder = r
}

func (b *Bot) setSender(s sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
}

// client returns the Telegram client, nil until Start authorized
func (b *Bot) client() sender {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sender
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(counts session.Counts) error {
	if b.client() == nil {
		return errors.New("bot is not started")
	}

	text := fmt.Sprintf("⏰ %d cards due in %s. Open a pack to review them.", counts.Due, counts.Language.Label())
	msg := tgbotapi.NewMessage(b.config.OwnerChatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📦 Open pack", CallbackData: callbackPackOpen}}})
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	log.Printf("Sent reminder for %d %s cards", counts.Due, counts.Language)
	return nil
}

// allowed reports whether chatID may use the bot
func (b *Bot) allowed(chatID int64) bool {
	return b.config.OwnerChatID == chatID
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		if !b.allowed(update.Message.Chat.ID) {
			log.Printf("Ignoring message from chat %d", update.Message.Chat.ID)
			return
		}
		var err error
		if update.Message.IsCommand() {
			err = b.HandleCommand(ctx, update.Message)
		} else {
			err = b.showMainMenu(update.Message.Chat.ID)
		}
		if err != nil {
			log.Printf("Error handling message: %v", err)
		}
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		if !b.allowed(update.CallbackQuery.Message.Chat.ID) {
			log.Printf("Ignoring callback from chat %d", update.CallbackQuery.Message.Chat.ID)
			return
		}
		if err := b.HandleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("Error handling callback %q: %v", update.CallbackQuery.Data, err)
		}
	}
}

// sendMessage sends msg as HTML
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	c := b.client()
	if c == nil {
		return errors.New("bot is not started")
	}
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := c.Send(msg)
	return err
}

// request performs an API call whose reply carries no message
func (b *Bot) request(c tgbotapi.Chattable) {
	client := b.client()
	if client == nil {
		return
	}
	if _, err := client.Request(c); err != nil {
		log.Printf("Error calling Telegram: %v", err)
	}
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Main Menu - choose an option:")
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📦 New pack", CallbackData: callbackPackOpen},
			{Text: "🃏 Current card", CallbackData: callbackCard},
		},
		{
			{Text: "📊 Statistics", CallbackData: callbackStats},
			{Text: "🌐 Language", CallbackData: callbackLanguageMenu},
		},
	}
}
