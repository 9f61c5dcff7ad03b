package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabpack/internal/session"
	"github.com/example/vocabpack/pkg/models"
)

// Constants for callback data
const (
	callbackPackOpen     = "pack_open"
	callbackCard         = "card"
	callbackStats        = "stats"
	callbackLanguageMenu = "lang_menu"
	callbackResetConfirm = "reset_confirm"
	callbackResetCancel  = "reset_cancel"

	prefixGrade    = "grade_"
	prefixLanguage = "lang_"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(chatID)
	case "help":
		err = b.handleHelp(chatID)
	case "lang":
		err = b.handleLanguage(ctx, chatID, strings.TrimSpace(message.CommandArguments()))
	case "pack":
		err = b.openPack(ctx, chatID)
	case "card":
		err = b.showCard(chatID)
	case "stats":
		err = b.handleStats(chatID)
	case "unknown":
		err = b.handleList(chatID, "🔴 Struggling words", models.GradeUnknown, models.GradeUnsure)
	case "known":
		err = b.handleList(chatID, "🟢 Known words", models.GradeKnown)
	case "reset":
		err = b.handleReset(chatID)
	case "remind":
		err = b.handleRemind(chatID)
	default:
		err = b.handleUnknownCommand(chatID)
	}
	return err
}

func (b *Bot) handleStart(chatID int64) error {
	lang := b.manager.ActiveLanguage()
	gaps := b.manager.Gaps()
	text := "👋 Welcome!\n\n" +
		fmt.Sprintf("Words are studied in packs of up to %d cards. Each pack is one session: grade every card as ", b.manager.PackSize()) +
		fmt.Sprintf("<b>known</b>, <b>unsure</b> or <b>unknown</b> and it comes back after %d, %d or %d sessions.\n\n", gaps.Known, gaps.Unsure, gaps.Unknown) +
		fmt.Sprintf("Studying: <b>%s</b>", html.EscapeString(lang.Label()))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	gaps := b.manager.Gaps()
	text := "📖 Commands\n\n" +
		fmt.Sprintf("/pack - open a new pack of up to %d cards\n", b.manager.PackSize()) +
		"/card - show the current card\n" +
		"/lang [en|ja|es] - switch language\n" +
		"/stats - progress summary\n" +
		"/unknown - words graded unknown or unsure\n" +
		"/known - words graded known\n" +
		"/remind - send the due reminder now\n" +
		"/reset - erase all progress\n\n" +
		fmt.Sprintf("Cards come back after %d sessions when known, %d when unsure and %d when unknown.",
			gaps.Known, gaps.Unsure, gaps.Unknown)
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleUnknownCommand(chatID int64) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, "Unknown command. Use /help to list commands."))
}

func (b *Bot) handleLanguage(ctx context.Context, chatID int64, code string) error {
	if code == "" {
		return b.showLanguageMenu(chatID)
	}
	lang, err := models.ParseLanguage(code)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Unsupported language %q.", html.EscapeString(code))))
	}
	return b.switchLanguage(ctx, chatID, lang)
}

func (b *Bot) showLanguageMenu(chatID int64) error {
	active := b.manager.ActiveLanguage()
	var row []MenuButton
	for _, l := range models.SupportedLanguages {
		label := l.Label()
		if l == active {
			label = "✅ " + label
		}
		row = append(row, MenuButton{Text: label, CallbackData: prefixLanguage + string(l)})
	}
	msg := tgbotapi.NewMessage(chatID, "Choose a language:")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{row})
	return b.sendMessage(msg)
}

func (b *Bot) switchLanguage(ctx context.Context, chatID int64, lang models.Language) error {
	if err := b.manager.SetActiveLanguage(ctx, lang); err != nil && !b.warnPersistence(chatID, err) {
		return err
	}
	c := b.manager.Counts()
	text := fmt.Sprintf("🌐 Now studying <b>%s</b> (%d words, session %d).",
		html.EscapeString(lang.Label()), c.Total, c.Session)
	if _, open := b.manager.OpenPack(); open {
		text += "\nYour open pack is kept. Use /card to continue."
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// openPack starts the next session of the active language
func (b *Bot) openPack(ctx context.Context, chatID int64) error {
	lang := b.manager.ActiveLanguage()
	if len(b.manager.Items(lang)) == 0 {
		return b.sendMessage(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("No words yet for %s.", html.EscapeString(lang.Label()))))
	}

	pack, err := b.manager.OpenNewPack(ctx)
	if err != nil && !b.warnPersistence(chatID, err) {
		return err
	}
	if len(pack.IDs) == 0 {
		return b.sendMessage(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Session %d: nothing to study right now. 🎉", pack.Session)))
	}
	if err := b.sendMessage(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("📦 Session %d: %d cards.", pack.Session, len(pack.IDs)))); err != nil {
		return err
	}
	return b.showCard(chatID)
}

// showCard sends the card under the cursor with grading buttons
func (b *Bot) showCard(chatID int64) error {
	pack, open := b.manager.OpenPack()
	if !open {
		msg := tgbotapi.NewMessage(chatID, "No open pack.")
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📦 Open pack", CallbackData: callbackPackOpen}}})
		return b.sendMessage(msg)
	}

	item, ok := b.manager.CurrentCard()
	ref, hasRef := b.manager.CurrentRef()
	if !ok || !hasRef {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Session %d finished.", pack.Session))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{
			{Text: "📦 Next pack", CallbackData: callbackPackOpen},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		}})
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(chatID, formatCard(item, pack))
	msg.ReplyMarkup = createKeyboard(gradeButtons(ref))
	return b.sendMessage(msg)
}

// gradeButtons tie each answer to the card position, so pressing a button
// of an older card message cannot grade the card shown now
func gradeButtons(ref session.CardRef) [][]MenuButton {
	return [][]MenuButton{{
		{Text: "🟢 Known", CallbackData: gradeData(models.GradeKnown, ref)},
		{Text: "🟡 Unsure", CallbackData: gradeData(models.GradeUnsure, ref)},
		{Text: "🔴 Unknown", CallbackData: gradeData(models.GradeUnknown, ref)},
	}}
}

// gradeData encodes grade_<outcome>_<lang>_<session>_<idx>
func gradeData(outcome models.Grade, ref session.CardRef) string {
	return fmt.Sprintf("%s%s_%s_%d_%d", prefixGrade, outcome, ref.Language, ref.Session, ref.Idx)
}

func parseGradeData(data string) (models.Grade, session.CardRef, error) {
	parts := strings.Split(strings.TrimPrefix(data, prefixGrade), "_")
	if len(parts) != 4 {
		return models.GradeUnset, session.CardRef{}, fmt.Errorf("malformed grade callback %q", data)
	}
	outcome, err := models.ParseGrade(parts[0])
	if err != nil {
		return models.GradeUnset, session.CardRef{}, err
	}
	lang, err := models.ParseLanguage(parts[1])
	if err != nil {
		return models.GradeUnset, session.CardRef{}, err
	}
	sess, err := strconv.Atoi(parts[2])
	if err != nil {
		return models.GradeUnset, session.CardRef{}, fmt.Errorf("malformed grade callback %q: %w", data, err)
	}
	idx, err := strconv.Atoi(parts[3])
	if err != nil {
		return models.GradeUnset, session.CardRef{}, fmt.Errorf("malformed grade callback %q: %w", data, err)
	}
	return outcome, session.CardRef{Language: lang, Session: sess, Idx: idx}, nil
}

// formatCard renders item as HTML. The meaning is hidden behind a spoiler.
func formatCard(item models.Item, pack models.Pack) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<i>%d/%d · session %d</i>\n\n", pack.Idx+1, len(pack.IDs), pack.Session)
	if item.Word == "" {
		fmt.Fprintf(&sb, "⚠️ <code>%s</code> is no longer in the word list.", html.EscapeString(item.ID))
		return sb.String()
	}

	fmt.Fprintf(&sb, "<b>%s</b>", html.EscapeString(item.Word))
	if item.IPA != "" {
		fmt.Fprintf(&sb, "  %s", html.EscapeString(item.IPA))
	}
	if item.KoPron != "" {
		fmt.Fprintf(&sb, "\n%s", html.EscapeString(item.KoPron))
	}
	if item.MeaningKo != "" {
		fmt.Fprintf(&sb, "\n<tg-spoiler>%s</tg-spoiler>", html.EscapeString(item.MeaningKo))
	}
	if item.Example != "" {
		fmt.Fprintf(&sb, "\n\n<i>%s</i>", html.EscapeString(item.Example))
	}
	return sb.String()
}

// handleGradeCallback grades the card a button belongs to. The keyboard of
// the answered message is removed; presses for cards that are no longer
// current only get a notice.
func (b *Bot) handleGradeCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	outcome, ref, err := parseGradeData(callback.Data)
	if err != nil {
		b.request(tgbotapi.NewCallback(callback.ID, ""))
		return err
	}

	err = b.manager.GradeAt(ctx, ref, outcome)
	if errors.Is(err, session.ErrStaleCard) || errors.Is(err, session.ErrNoOpenCard) {
		b.request(tgbotapi.NewCallback(callback.ID, "Already graded"))
		b.clearKeyboard(chatID, callback.Message.MessageID)
		return nil
	}
	b.request(tgbotapi.NewCallback(callback.ID, ""))
	if err != nil && !b.warnPersistence(chatID, err) {
		return err
	}
	b.clearKeyboard(chatID, callback.Message.MessageID)
	return b.showCard(chatID)
}

// clearKeyboard removes the inline keyboard of a sent message
func (b *Bot) clearKeyboard(chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty))
}

func (b *Bot) handleStats(chatID int64) error {
	c := b.manager.Counts()
	text := fmt.Sprintf("📊 <b>%s</b>\n\n"+
		"Session: %d\n"+
		"Words: %d\n"+
		"New: %d\n"+
		"Due now: %d\n\n"+
		"🟢 Known: %d\n"+
		"🟡 Unsure: %d\n"+
		"🔴 Unknown: %d",
		html.EscapeString(c.Language.Label()), c.Session, c.Total, c.New, c.Due,
		c.ByGrade[models.GradeKnown], c.ByGrade[models.GradeUnsure], c.ByGrade[models.GradeUnknown])
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleList(chatID int64, title string, grades ...models.Grade) error {
	entries := b.manager.ListItems(grades...)
	if len(entries) == 0 {
		return b.sendMessage(tgbotapi.NewMessage(chatID, title+": none yet."))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d)\n", title, len(entries))
	for i, e := range entries {
		if i == b.config.ListLimit {
			fmt.Fprintf(&sb, "… and %d more", len(entries)-i)
			break
		}
		fmt.Fprintf(&sb, "\n%s <b>%s</b> %s", RepetitionMark(e.Progress.SeenCount),
			html.EscapeString(e.Item.Word), html.EscapeString(e.Item.MeaningKo))
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, sb.String()))
}

// RepetitionMark summarizes how often a word has been graded
func RepetitionMark(seen int) string {
	switch {
	case seen <= 0:
		return "x"
	case seen == 1:
		return "△"
	default:
		return "o"
	}
}

func (b *Bot) handleRemind(chatID int64) error {
	b.mu.RLock()
	r := b.reminder
	b.mu.RUnlock()
	if r == nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Reminders are disabled."))
	}

	due, err := r.RunManualCheck()
	if err != nil {
		return err
	}
	if due == 0 {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Nothing is due right now."))
	}
	return nil
}

func (b *Bot) handleReset(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "⚠️ Erase all sessions and progress for every language?")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "Erase", CallbackData: callbackResetConfirm},
		{Text: "Cancel", CallbackData: callbackResetCancel},
	}})
	return b.sendMessage(msg)
}

func (b *Bot) resetProgress(ctx context.Context, chatID int64) error {
	if err := b.manager.ResetProgress(ctx); err != nil && !b.warnPersistence(chatID, err) {
		return err
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, "🧹 Progress erased."))
}

// warnPersistence tells the learner that a change was applied but not saved.
// It reports whether err was a persistence failure.
func (b *Bot) warnPersistence(chatID int64, err error) bool {
	var perr *session.PersistenceError
	if !errors.As(err, &perr) {
		return false
	}
	if sendErr := b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Progress could not be saved and will be lost on restart.")); sendErr != nil {
		log.Printf("Error sending persistence warning: %v", sendErr)
	}
	return true
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	data := callback.Data
	if strings.HasPrefix(data, prefixGrade) {
		return b.handleGradeCallback(ctx, callback)
	}

	// Acknowledge first so the client stops the spinner
	b.request(tgbotapi.NewCallback(callback.ID, ""))

	switch {
	case data == callbackPackOpen:
		return b.openPack(ctx, chatID)
	case data == callbackCard:
		return b.showCard(chatID)
	case data == callbackStats:
		return b.handleStats(chatID)
	case data == callbackLanguageMenu:
		return b.showLanguageMenu(chatID)
	case data == callbackResetConfirm:
		return b.resetProgress(ctx, chatID)
	case data == callbackResetCancel:
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Reset cancelled."))
	case strings.HasPrefix(data, prefixLanguage):
		return b.handleLanguage(ctx, chatID, strings.TrimPrefix(data, prefixLanguage))
	}
	return fmt.Errorf("unknown callback data %q", data)
}
