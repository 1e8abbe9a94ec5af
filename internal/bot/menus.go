package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/babycare/internal/conversation"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/telegram"
)

const statsPerKind = 5

var (
	intervalHours = []int{1, 2, 3, 4, 5, 6}
	bathDays      = []int{1, 2, 3}
	tipTimes      = []model.ClockTime{{Hour: 7}, {Hour: 8}, {Hour: 9}, {Hour: 10}, {Hour: 12}, {Hour: 20}}
	bathTimes     = []model.ClockTime{{Hour: 18}, {Hour: 18, Minute: 30}, {Hour: 19}, {Hour: 19, Minute: 30}, {Hour: 20}, {Hour: 20, Minute: 30}}
)

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Button("🍼 Feeding", "feeding")),
		telegram.Row(telegram.Button("👶 Diaper change", "diaper")),
		telegram.Row(telegram.Button("📊 Statistics", "stats")),
		telegram.Row(telegram.Button("⚙️ Settings", "settings")),
	)
}

func backKeyboard(data string) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(telegram.Row(telegram.Button("🔙 Back", data)))
}

func genderKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Button("👶 Boy", "set_baby_gender_m")),
		telegram.Row(telegram.Button("👧 Girl", "set_baby_gender_f")),
		telegram.Row(telegram.Button("🔙 Back", "baby_info")),
	)
}

// intervalKeyboard offers the hour choices for a reminder interval, three to
// a row.
func intervalKeyboard(prefix string) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, h := range intervalHours {
		row = append(row, telegram.Button(fmt.Sprintf("%d h", h), fmt.Sprintf("%s%d", prefix, h)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, telegram.Row(telegram.Button("🔙 Back", "back_to_settings")))
	return telegram.Keyboard(rows...)
}

func clockButtons(prefix string, times []model.ClockTime) [][]telegram.InlineKeyboardButton {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, ct := range times {
		row = append(row, telegram.Button(ct.String(), fmt.Sprintf("%s%d_%d", prefix, ct.Hour, ct.Minute)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func clockKeyboard(prefix string, times []model.ClockTime, back string) *telegram.InlineKeyboardMarkup {
	rows := clockButtons(prefix, times)
	rows = append(rows, telegram.Row(telegram.Button("🔙 Back", back)))
	return telegram.Keyboard(rows...)
}

func (b *Bot) startMenu(ctx context.Context, req request) {
	if _, err := b.care.FamilyOf(req.userID); err == nil {
		b.reply(ctx, req, "👋 Welcome to BabyCareBot!\n\nChoose an action:", mainMenuKeyboard())
		return
	}
	b.reply(ctx, req, "👋 Welcome to BabyCareBot!\n\nTo get started, create a family or join one:",
		telegram.Keyboard(
			telegram.Row(telegram.Button("👨‍👩‍👧 Create family", "create_family")),
			telegram.Row(telegram.Button("🔗 Join family", "join_family")),
		))
}

func (b *Bot) settingsMenu(ctx context.Context, req request, familyID int64) {
	st, err := b.care.Settings(familyID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	tipsLabel := "🔕 Tips: OFF"
	if st.TipsEnabled {
		tipsLabel = "🔔 Tips: ON"
	}
	bathLabel := fmt.Sprintf("🛁 Bath: %s (%s)", st.BathTime, onOff(st.BathEnabled, "ON", "OFF"))

	b.reply(ctx, req, "⚙️ Settings\n\nChoose what to configure:", telegram.Keyboard(
		telegram.Row(telegram.Button(fmt.Sprintf("🍼 Feeding interval: %dh", st.FeedInterval), "feed_interval_menu")),
		telegram.Row(telegram.Button(fmt.Sprintf("👶 Diaper interval: %dh", st.DiaperInterval), "diaper_interval_menu")),
		telegram.Row(telegram.Button(tipsLabel, "toggle_tips")),
		telegram.Row(telegram.Button("🕐 Tips time: "+st.TipsTime.String(), "tips_time_menu")),
		telegram.Row(telegram.Button(bathLabel, "bath_menu")),
		telegram.Row(telegram.Button("👶 Baby info", "baby_info")),
		telegram.Row(telegram.Button("👤 My role", "my_role")),
		telegram.Row(telegram.Button("👨‍👩‍👧 Family management", "family_management")),
		telegram.Row(telegram.Button("🔙 Back", "back_to_start")),
	))
}

func (b *Bot) bathMenu(ctx context.Context, req request, familyID int64) {
	st, err := b.care.Settings(familyID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	text := fmt.Sprintf("🛁 Bath reminders\n\nBath time: %s\nEvery %d day(s)\nReminders: %s\n\nA reminder is sent one hour before bath time.",
		st.BathTime, st.BathInterval, onOff(st.BathEnabled, "ON", "OFF"))

	rows := clockButtons("bath_time_", bathTimes)
	var days []telegram.InlineKeyboardButton
	for _, d := range bathDays {
		days = append(days, telegram.Button(fmt.Sprintf("Every %d d", d), fmt.Sprintf("bath_interval_%d", d)))
	}
	rows = append(rows, days,
		telegram.Row(telegram.Button(onOff(st.BathEnabled, "🔕 Turn off", "🔔 Turn on"), "toggle_bath")),
		telegram.Row(telegram.Button("🔙 Back", "back_to_settings")),
	)
	b.reply(ctx, req, text, telegram.Keyboard(rows...))
}

func (b *Bot) babyInfoMenu(ctx context.Context, req request, familyID int64) {
	baby, err := b.care.Baby(familyID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	birth := baby.BirthDate
	if birth == "" {
		birth = "Not specified"
	}
	text := fmt.Sprintf("👶 Baby info\n\nName: %s\nBirth date: %s\nGender: %s\nWeight: %g kg\nHeight: %g cm\n\nChoose what to change:",
		baby.Name, birth, baby.Gender, baby.Weight, baby.Height)

	b.reply(ctx, req, text, telegram.Keyboard(
		telegram.Row(telegram.Button("✏️ Change name", "edit_baby_name")),
		telegram.Row(telegram.Button("📅 Change birth date", "edit_baby_birth")),
		telegram.Row(telegram.Button("👶 Change gender", "edit_baby_gender")),
		telegram.Row(telegram.Button("⚖️ Change weight", "edit_baby_weight")),
		telegram.Row(telegram.Button("📏 Change height", "edit_baby_height")),
		telegram.Row(telegram.Button("🔙 Back to settings", "back_to_settings")),
	))
}

func (b *Bot) familyMenu(ctx context.Context, req request, familyID int64) {
	snap, err := b.care.Snapshot(familyID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👨‍👩‍👧 Family '%s'\n\nMembers:\n", snap.Family.Name)
	for _, m := range snap.Members {
		fmt.Fprintf(&sb, "• %s (%s)\n", m.Name, m.Role)
	}

	b.reply(ctx, req, sb.String(), telegram.Keyboard(
		telegram.Row(telegram.Button("🔗 Invite a member", "invite")),
		telegram.Row(telegram.Button("📊 Open dashboard", "dashboard")),
		telegram.Row(telegram.Button("🔙 Back", "back_to_settings")),
	))
}

func (b *Bot) stats(ctx context.Context, req request, familyID int64) {
	feedings, err := b.care.LastEvents(familyID, model.EventFeeding, statsPerKind)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}
	diapers, err := b.care.LastEvents(familyID, model.EventDiaper, statsPerKind)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Latest records\n\n🍼 Last feedings:\n")
	b.writeEvents(&sb, feedings)
	sb.WriteString("\n👶 Last diaper changes:\n")
	b.writeEvents(&sb, diapers)

	b.reply(ctx, req, sb.String(), backKeyboard("back_to_start"))
}

// writeEvents lists events as "dd.mm HH:MM - author". Rows whose timestamp
// cannot be read are left out.
func (b *Bot) writeEvents(sb *strings.Builder, events []model.Event) {
	loc := b.care.Location()
	for _, e := range events {
		at, err := model.ParseTimestamp(e.Timestamp, loc)
		if err != nil {
			continue
		}
		fmt.Fprintf(sb, "• %s - %s\n", at.Format("02.01 15:04"), e.AuthorName)
	}
}

func profilePrompt(f conversation.Field) string {
	switch f {
	case conversation.FieldName:
		return "Enter the baby's name:"
	case conversation.FieldBirth:
		return "Enter the baby's birth date (format: DD.MM.YYYY):"
	case conversation.FieldWeight:
		return "Enter the baby's weight in kg (for example: 7.5):"
	case conversation.FieldHeight:
		return "Enter the baby's height in cm (for example: 68.5):"
	}
	return "Enter a value:"
}

func profileConfirmation(f conversation.Field, baby model.BabyInfo) string {
	switch f {
	case conversation.FieldName:
		return "✅ Baby's name updated: " + baby.Name
	case conversation.FieldBirth:
		return "✅ Birth date updated: " + baby.BirthDate
	case conversation.FieldWeight:
		return fmt.Sprintf("✅ Weight updated: %g kg", baby.Weight)
	case conversation.FieldHeight:
		return fmt.Sprintf("✅ Height updated: %g cm", baby.Height)
	}
	return "✅ Updated"
}
