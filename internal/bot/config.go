package bot

// Config represents the configuration for the bot
type Config struct {
	// Telegram bot token
	Token string
	// The only chat that may use the bot; reminders go there too
	OwnerChatID int64
	// Long polling timeout in seconds
	PollTimeout int
	// Maximum entries printed by the word list commands
	ListLimit int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		PollTimeout: 60,
		ListLimit:   30,
	}
}
