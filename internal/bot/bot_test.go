package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabpack/internal/session"
	"github.com/example/vocabpack/internal/spaced_repetition"
	"github.com/example/vocabpack/pkg/models"
)

const ownerChat int64 = 42

type fakeSender struct {
	messages  []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
	edits     []tgbotapi.EditMessageReplyMarkupConfig
	err       error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	switch v := c.(type) {
	case tgbotapi.CallbackConfig:
		f.callbacks = append(f.callbacks, v)
	case tgbotapi.EditMessageReplyMarkupConfig:
		f.edits = append(f.edits, v)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type failingPersister struct{}

func (failingPersister) Save(context.Context, *models.State) error { return errors.New("disk full") }
func (failingPersister) Reset(context.Context) error { return errors.New("disk full") }

func newTestBot(t *testing.T, items map[models.Language][]models.Item, p session.Persister) (*Bot, *fakeSender) {
	t.Helper()
	m := session.NewManager(models.DefaultState(), items, p, session.Options{PackSize: 20})
	b, err := New(Config{Token: "test", OwnerChatID: ownerChat}, m)
	require.NoError(t, err)
	s := &fakeSender{}
	b.setSender(s)
	return b, s
}

func englishItems() map[models.Language][]models.Item {
	return map[models.Language][]models.Item{
		models.English: {
			{ID: "en_1", Word: "apple", IPA: "/ˈæp.əl/", MeaningKo: "사과", Example: "An apple a day."},
			{ID: "en_2", Word: "run", MeaningKo: "달리다", Example: "I run <fast>."},
			{ID: "en_3", Word: "walk", MeaningKo: "걷다", Example: "We walk home."},
		},
	}
}

func command(text string) tgbotapi.Update {
	n := len(text)
	for i, r := range text {
		if r == ' ' {
			n = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: ownerChat},
		From:     &tgbotapi.User{ID: ownerChat},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func press(data string) tgbotapi.Update {
	return pressOn(0, data)
}

func pressOn(messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: ownerChat},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: ownerChat}},
		Data:    data,
	}}
}

// gradeButton returns the callback data of the outcome button on the last
// card that was sent
func gradeButton(t *testing.T, s *fakeSender, outcome string) string {
	t.Helper()
	for i := len(s.messages) - 1; i >= 0; i-- {
		kb, ok := s.messages[i].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData != nil && strings.HasPrefix(*btn.CallbackData, "grade_"+outcome+"_") {
					return *btn.CallbackData
				}
			}
		}
	}
	t.Fatalf("no %s button sent", outcome)
	return ""
}

func TestNewRequiresToken(t *testing.T) {
	m := session.NewManager(nil, nil, nil, session.Options{})
	_, err := New(Config{OwnerChatID: ownerChat}, m)
	assert.Error(t, err)
	_, err = New(Config{Token: "test"}, m)
	assert.Error(t, err, "owner chat is required")
}

func TestPackWalkthrough(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)

	b.handleUpdate(ctx, command("/pack"))
	require.Len(t, s.messages, 2)
	assert.Equal(t, "📦 Session 1: 3 cards.", s.messages[0].Text)
	card := s.last(t)
	assert.Equal(t, tgbotapi.ModeHTML, card.ParseMode)
	assert.Contains(t, card.Text, "1/3 · session 1")
	assert.Contains(t, card.Text, "<tg-spoiler>")
	require.IsType(t, tgbotapi.InlineKeyboardMarkup{}, card.ReplyMarkup)
	kb := card.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, kb.InlineKeyboard[0], 3)
	assert.Equal(t, "grade_known_en_1_0", *kb.InlineKeyboard[0][0].CallbackData)

	b.handleUpdate(ctx, press(gradeButton(t, s, "known")))
	b.handleUpdate(ctx, press(gradeButton(t, s, "unsure")))
	assert.Contains(t, s.last(t).Text, "3/3")
	last := gradeButton(t, s, "unknown")
	assert.Equal(t, "grade_unknown_en_1_2", last)
	b.handleUpdate(ctx, press(last))
	assert.Equal(t, "✅ Session 1 finished.", s.last(t).Text)
	assert.Len(t, s.callbacks, 3)
	assert.Len(t, s.edits, 3, "answered keyboards are removed")

	c := b.manager.Counts()
	assert.Equal(t, 1, c.ByGrade[models.GradeKnown])
	assert.Equal(t, 1, c.ByGrade[models.GradeUnsure])
	assert.Equal(t, 1, c.ByGrade[models.GradeUnknown])

	// no card left: pressing an old button only gets a notice
	sent := len(s.messages)
	b.handleUpdate(ctx, press(last))
	assert.Len(t, s.messages, sent)
	assert.Equal(t, "Already graded", s.callbacks[len(s.callbacks)-1].Text)
}

func TestRepeatedPressGradesOnce(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(ctx, command("/pack"))

	first := gradeButton(t, s, "unknown")
	b.handleUpdate(ctx, pressOn(10, first))
	sent := len(s.messages)
	b.handleUpdate(ctx, pressOn(10, first))

	assert.Equal(t, 1, b.manager.Counts().ByGrade[models.GradeUnknown])
	assert.Len(t, s.messages, sent, "no new card for a repeated answer")
	assert.Equal(t, "Already graded", s.callbacks[len(s.callbacks)-1].Text)
	ref, ok := b.manager.CurrentRef()
	require.True(t, ok)
	assert.Equal(t, 1, ref.Idx)

	require.Len(t, s.edits, 2)
	assert.Equal(t, 10, s.edits[0].MessageID)
	assert.Equal(t, ownerChat, s.edits[0].ChatID)

	// a button from a previous pack is stale as well
	b.handleUpdate(ctx, command("/pack"))
	b.handleUpdate(ctx, press(first))
	assert.Equal(t, 0, b.manager.Counts().ByGrade[models.GradeKnown]+b.manager.Counts().ByGrade[models.GradeUnsure])
	assert.Equal(t, 1, b.manager.Counts().ByGrade[models.GradeUnknown])

	b.handleUpdate(ctx, press("grade_unknown"))
	assert.Equal(t, 1, b.manager.Counts().ByGrade[models.GradeUnknown], "malformed data is ignored")
}

func TestParseGradeData(t *testing.T) {
	ref := session.CardRef{Language: models.Japanese, Session: 12, Idx: 19}
	outcome, got, err := parseGradeData(gradeData(models.GradeUnsure, ref))
	require.NoError(t, err)
	assert.Equal(t, models.GradeUnsure, outcome)
	assert.Equal(t, ref, got)

	for _, bad := range []string{"grade_known", "grade_meh_en_1_0", "grade_known_fr_1_0", "grade_known_en_x_0", "grade_known_en_1_y"} {
		_, _, err := parseGradeData(bad)
		assert.Error(t, err, bad)
	}
}

func TestPackRefusedWithoutWords(t *testing.T) {
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(context.Background(), command("/lang ja"))
	b.handleUpdate(context.Background(), command("/pack"))

	assert.Equal(t, "No words yet for 日本語.", s.last(t).Text)
	_, open := b.manager.OpenPack()
	assert.False(t, open)
	assert.Equal(t, 0, b.manager.Counts().Session)
}

func TestLanguageSwitchKeepsPack(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(ctx, command("/pack"))
	b.handleUpdate(ctx, press("lang_es"))
	assert.Equal(t, models.Spanish, b.manager.ActiveLanguage())

	b.handleUpdate(ctx, press("lang_en"))
	assert.Contains(t, s.last(t).Text, "open pack is kept")
	b.handleUpdate(ctx, command("/card"))
	assert.Contains(t, s.last(t).Text, "1/3")

	b.handleUpdate(ctx, command("/lang xx"))
	assert.Equal(t, `Unsupported language &#34;xx&#34;.`, s.last(t).Text)
	assert.Equal(t, models.English, b.manager.ActiveLanguage())
}

func TestCardWithoutPack(t *testing.T) {
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(context.Background(), command("/card"))
	assert.Equal(t, "No open pack.", s.last(t).Text)
}

func TestListsAndStats(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(ctx, command("/known"))
	assert.Equal(t, "🟢 Known words: none yet.", s.last(t).Text)

	b.handleUpdate(ctx, command("/pack"))
	b.handleUpdate(ctx, press(gradeButton(t, s, "unknown")))
	b.handleUpdate(ctx, press(gradeButton(t, s, "unknown")))
	b.handleUpdate(ctx, press(gradeButton(t, s, "known")))

	b.handleUpdate(ctx, command("/unknown"))
	text := s.last(t).Text
	assert.Contains(t, text, "🔴 Struggling words (2)")
	assert.Contains(t, text, "△ <b>")

	b.handleUpdate(ctx, command("/stats"))
	stats := s.last(t).Text
	assert.Contains(t, stats, "Session: 1")
	assert.Contains(t, stats, "Words: 3")
	assert.Contains(t, stats, "🔴 Unknown: 2")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(ctx, command("/pack"))
	b.handleUpdate(ctx, command("/reset"))
	assert.Equal(t, 1, b.manager.Counts().Session, "reset waits for confirmation")

	b.handleUpdate(ctx, press("reset_confirm"))
	assert.Equal(t, "🧹 Progress erased.", s.last(t).Text)
	assert.Equal(t, 0, b.manager.Counts().Session)
}

func TestPersistenceWarning(t *testing.T) {
	b, s := newTestBot(t, englishItems(), failingPersister{})
	b.handleUpdate(context.Background(), command("/pack"))

	var warned bool
	for _, m := range s.messages {
		if m.Text == "⚠️ Progress could not be saved and will be lost on restart." {
			warned = true
		}
	}
	assert.True(t, warned)
	assert.Contains(t, s.last(t).Text, "1/3", "pack still opens in memory")
}

func TestForeignChatIgnored(t *testing.T) {
	b, s := newTestBot(t, englishItems(), nil)
	u := command("/pack")
	u.Message.Chat.ID = 7
	b.handleUpdate(context.Background(), u)
	assert.Empty(t, s.messages)
}

func TestSendReminder(t *testing.T) {
	b, s := newTestBot(t, englishItems(), nil)
	require.NoError(t, b.SendReminder(session.Counts{Language: models.Spanish, Due: 5}))
	msg := s.last(t)
	assert.Equal(t, ownerChat, msg.ChatID)
	assert.Equal(t, "⏰ 5 cards due in Español. Open a pack to review them.", msg.Text)

	b.setSender(nil)
	assert.Error(t, b.SendReminder(session.Counts{Due: 1}), "not started")
}

type fakeReminder struct {
	due   int
	calls int
}

func (f *fakeReminder) RunManualCheck() (int, error) {
	f.calls++
	return f.due, nil
}

func TestRemindCommand(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBot(t, englishItems(), nil)
	b.handleUpdate(ctx, command("/remind"))
	assert.Equal(t, "Reminders are disabled.", s.last(t).Text)

	r := &fakeReminder{}
	b.SetReminder(r)
	b.handleUpdate(ctx, command("/remind"))
	assert.Equal(t, "Nothing is due right now.", s.last(t).Text)

	r.due = 3
	sent := len(s.messages)
	b.handleUpdate(ctx, command("/remind"))
	assert.Equal(t, 2, r.calls)
	assert.Len(t, s.messages, sent, "the reminder itself is sent by the scheduler")
}

func TestStartAndHelpShowConfiguredGaps(t *testing.T) {
	m := session.NewManager(models.DefaultState(), englishItems(), nil, session.Options{
		PackSize: 12,
		Gaps:     spaced_repetition.SessionGaps{Known: 7, Unsure: 4, Unknown: 2},
	})
	b, err := New(Config{Token: "test", OwnerChatID: ownerChat}, m)
	require.NoError(t, err)
	s := &fakeSender{}
	b.setSender(s)

	b.handleUpdate(context.Background(), command("/start"))
	start := s.last(t).Text
	assert.Contains(t, start, "packs of up to 12 cards")
	assert.Contains(t, start, "after 7, 4 or 2 sessions")

	b.handleUpdate(context.Background(), command("/help"))
	help := s.last(t).Text
	assert.Contains(t, help, "/pack - open a new pack of up to 12 cards")
	assert.Contains(t, help, "7 sessions when known, 4 when unsure and 2 when unknown")
}

func TestFormatCard(t *testing.T) {
	pack := models.Pack{Session: 2, IDs: []string{"a", "b"}, Idx: 1}
	text := formatCard(models.Item{ID: "a", Word: "run", Example: "I run <fast>."}, pack)
	assert.Contains(t, text, "<i>2/2 · session 2</i>")
	assert.Contains(t, text, "I run &lt;fast&gt;.")
	assert.NotContains(t, text, "tg-spoiler", "no meaning, no spoiler")

	orphan := formatCard(models.Item{ID: "gone"}, pack)
	assert.Contains(t, orphan, "<code>gone</code> is no longer in the word list")
}

func TestRepetitionMark(t *testing.T) {
	assert.Equal(t, "x", RepetitionMark(0))
	assert.Equal(t, "△", RepetitionMark(1))
	assert.Equal(t, "o", RepetitionMark(2))
	assert.Equal(t, "o", RepetitionMark(9))
}
