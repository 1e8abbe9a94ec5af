// Package bot turns chat updates into care operations and renders the
// replies and menus.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/babycare/internal/care"
	"github.com/dukerupert/babycare/internal/conversation"
	"github.com/dukerupert/babycare/internal/invite"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/telegram"
)

// Messenger is the outgoing side of the chat API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

type Config struct {
	// AllowedUsers restricts the bot to these recipients. Empty allows all.
	AllowedUsers []int64
	PublicURL    string
	InviteTTL    time.Duration
	DashboardTTL time.Duration
}

const (
	msgNotInFamily   = "❌ You are not in a family."
	msgFailure       = "⚠️ Something went wrong. Please try again."
	msgRefused       = "⛔ Sorry, this bot is private."
	msgAlreadyMember = "❌ You are already in a family."
)

type Bot struct {
	care    *care.Service
	tracker *conversation.Tracker
	tokens  *invite.Signer
	out     Messenger
	cfg     Config
	allowed map[int64]bool
	logger  *slog.Logger
}

func New(svc *care.Service, tracker *conversation.Tracker, tokens *invite.Signer, out Messenger, cfg Config, logger *slog.Logger) *Bot {
	allowed := make(map[int64]bool, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		allowed[id] = true
	}
	return &Bot{
		care:    svc,
		tracker: tracker,
		tokens:  tokens,
		out:     out,
		cfg:     cfg,
		allowed: allowed,
		logger:  logger,
	}
}

// request identifies who is talking and where the reply goes.
type request struct {
	userID int64
	chatID int64
	name   string
}

func (b *Bot) isAllowed(userID int64) bool {
	return len(b.allowed) == 0 || b.allowed[userID]
}

// HandleUpdate processes one update. It never returns an error: failures are
// logged and, where possible, reported to the recipient.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("update handler panicked", "update_id", u.UpdateID, "panic", fmt.Sprint(p))
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) reply(ctx context.Context, req request, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if err := b.out.SendMessage(ctx, req.chatID, text, keyboard); err != nil {
		b.logger.Warn("send reply", "user_id", req.userID, "error", err)
	}
}

// fail reports err to the recipient. A missing family gets its own message.
func (b *Bot) fail(ctx context.Context, req request, err error) {
	if errors.Is(err, care.ErrNoFamily) {
		b.reply(ctx, req, msgNotInFamily, nil)
		return
	}
	b.logger.Error("handle request", "user_id", req.userID, "error", err)
	b.reply(ctx, req, msgFailure, nil)
}

func (b *Bot) handleMessage(ctx context.Context, m *telegram.Message) {
	req := request{userID: m.From.ID, chatID: m.Chat.ID, name: m.From.DisplayName()}
	if !b.isAllowed(req.userID) {
		b.reply(ctx, req, msgRefused, nil)
		return
	}

	text := strings.TrimSpace(m.Text)
	command, arg, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start":
		if arg = strings.TrimSpace(arg); arg != "" {
			b.join(ctx, req, arg)
			return
		}
		b.startMenu(ctx, req)
	case "/join":
		b.join(ctx, req, strings.TrimSpace(arg))
	case "/cancel":
		b.tracker.Clear(req.userID)
		b.reply(ctx, req, "Cancelled.", nil)
	default:
		b.handleText(ctx, req, m.Text)
	}
}

// handleText reads free text as the answer to the recipient's pending
// interaction. Rejected answers leave the interaction pending so the
// recipient can try again.
func (b *Bot) handleText(ctx context.Context, req request, text string) {
	p, ok := b.tracker.Peek(req.userID)
	if !ok {
		b.reply(ctx, req, "Use /start to open the menu.", nil)
		return
	}

	switch p.State {
	case conversation.AwaitingFamilyName:
		if !b.withoutFamily(ctx, req) {
			b.tracker.Clear(req.userID)
			return
		}
		name, err := conversation.FamilyName(text)
		if err != nil {
			b.rejectInput(ctx, req, err)
			return
		}
		f, err := b.care.CreateFamily(req.userID, name, req.name)
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.tracker.Clear(req.userID)
		b.logger.Info("family created", "family_id", f.ID, "user_id", req.userID)
		b.reply(ctx, req, fmt.Sprintf(
			"✅ Family '%s' created!\nYou were added as the administrator.\n\nYou can now record feedings and diaper changes.", f.Name),
			telegram.Keyboard(telegram.Row(telegram.Button("🔙 Main menu", "back_to_start"))))

	case conversation.AwaitingProfileField:
		familyID, err := b.care.FamilyOf(req.userID)
		if err != nil {
			if errors.Is(err, care.ErrNoFamily) {
				b.tracker.Clear(req.userID)
			}
			b.fail(ctx, req, err)
			return
		}
		patch, err := conversation.ProfileInput(p.Field, text)
		if err != nil {
			b.rejectInput(ctx, req, err)
			return
		}
		baby, err := b.care.UpdateBaby(familyID, patch)
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.tracker.Clear(req.userID)
		b.reply(ctx, req, profileConfirmation(p.Field, *baby), nil)
		b.babyInfoMenu(ctx, req, familyID)
	}
}

// withoutFamily reports whether the recipient belongs to no family. Members
// are told so, and lookup failures are reported as errors.
func (b *Bot) withoutFamily(ctx context.Context, req request) bool {
	_, err := b.care.FamilyOf(req.userID)
	switch {
	case err == nil:
		b.reply(ctx, req, msgAlreadyMember, mainMenuKeyboard())
		return false
	case errors.Is(err, care.ErrNoFamily):
		return true
	default:
		b.fail(ctx, req, err)
		return false
	}
}

func (b *Bot) rejectInput(ctx context.Context, req request, err error) {
	var ve *conversation.ValidationError
	if errors.As(err, &ve) {
		b.reply(ctx, req, ve.Message, nil)
		return
	}
	b.fail(ctx, req, err)
}

func (b *Bot) join(ctx context.Context, req request, token string) {
	if token == "" {
		b.reply(ctx, req, "Send the invite you received: /join <code>", nil)
		return
	}
	claims, err := b.tokens.ParseInvite(token)
	if err != nil {
		if errors.Is(err, invite.ErrExpiredToken) {
			b.reply(ctx, req, "❌ This invite has expired. Ask for a new one.", nil)
			return
		}
		b.logger.Info("rejected invite", "user_id", req.userID, "error", err)
		b.reply(ctx, req, "❌ This invite is not valid.", nil)
		return
	}

	current, err := b.care.FamilyOf(req.userID)
	if err != nil && !errors.Is(err, care.ErrNoFamily) {
		b.fail(ctx, req, err)
		return
	}
	if current == claims.FamilyID {
		b.reply(ctx, req, "You are already a member of this family.", mainMenuKeyboard())
		return
	}
	if current != 0 {
		b.reply(ctx, req, "❌ You are already in another family.", nil)
		return
	}

	f, err := b.care.JoinFamily(claims.FamilyID, req.userID, req.name)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}
	b.tracker.Clear(req.userID)
	b.logger.Info("member joined", "family_id", f.ID, "user_id", req.userID)
	b.reply(ctx, req, fmt.Sprintf("✅ You joined the family '%s' as %s.", f.Name, model.RoleParent), mainMenuKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, q *telegram.CallbackQuery) {
	req := request{userID: q.From.ID, chatID: q.From.ID, name: q.From.DisplayName()}
	if q.Message != nil {
		req.chatID = q.Message.Chat.ID
	}

	if err := b.out.AnswerCallback(ctx, q.ID); err != nil {
		b.logger.Warn("answer callback", "user_id", req.userID, "error", err)
	}
	if !b.isAllowed(req.userID) {
		b.reply(ctx, req, msgRefused, nil)
		return
	}

	cmd, err := conversation.ParseCommand(q.Data)
	if err != nil {
		b.logger.Warn("unknown callback", "user_id", req.userID, "data", q.Data, "error", err)
		return
	}
	b.dispatch(ctx, req, cmd)
}

// dispatch runs one decoded command. Commands other than onboarding require
// membership in a family.
func (b *Bot) dispatch(ctx context.Context, req request, cmd conversation.Command) {
	switch cmd.Kind {
	case conversation.CmdBackToStart:
		b.tracker.Clear(req.userID)
		b.startMenu(ctx, req)
		return
	case conversation.CmdCreateFamily:
		if !b.withoutFamily(ctx, req) {
			return
		}
		b.tracker.Begin(req.userID, conversation.Pending{State: conversation.AwaitingFamilyName})
		b.reply(ctx, req, "Enter the family name:", backKeyboard("back_to_start"))
		return
	case conversation.CmdJoinFamily:
		b.reply(ctx, req, "To join a family, ask its administrator for an invite and send it here:\n/join <code>",
			backKeyboard("back_to_start"))
		return
	}

	familyID, err := b.care.FamilyOf(req.userID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}

	switch cmd.Kind {
	case conversation.CmdFeeding, conversation.CmdDiaper:
		kind := model.EventFeeding
		if cmd.Kind == conversation.CmdDiaper {
			kind = model.EventDiaper
		}
		msg, err := b.care.RecordEvent(care.RecordRequest{
			FamilyID:    familyID,
			RecipientID: req.userID,
			Kind:        kind,
			DisplayName: req.name,
		})
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.reply(ctx, req, msg, nil)

	case conversation.CmdStats:
		b.stats(ctx, req, familyID)

	case conversation.CmdSettings, conversation.CmdBackToSettings:
		b.tracker.Clear(req.userID)
		b.settingsMenu(ctx, req, familyID)

	case conversation.CmdBabyInfo:
		b.babyInfoMenu(ctx, req, familyID)

	case conversation.CmdEditBaby:
		if cmd.Field == conversation.FieldGender {
			b.reply(ctx, req, "Choose the baby's gender:", genderKeyboard())
			return
		}
		b.tracker.Begin(req.userID, conversation.Pending{State: conversation.AwaitingProfileField, Field: cmd.Field})
		b.reply(ctx, req, profilePrompt(cmd.Field), backKeyboard("baby_info"))

	case conversation.CmdSetGender:
		baby, err := b.care.UpdateBaby(familyID, model.BabyPatch{Gender: &cmd.Gender})
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.reply(ctx, req, "✅ Baby's gender updated: "+baby.Gender, nil)
		b.babyInfoMenu(ctx, req, familyID)

	case conversation.CmdFeedIntervalMenu:
		b.reply(ctx, req, "Choose how often to remind about feeding:", intervalKeyboard("feed_interval_"))

	case conversation.CmdDiaperIntervalMenu:
		b.reply(ctx, req, "Choose how often to remind about diaper changes:", intervalKeyboard("diaper_interval_"))

	case conversation.CmdSetFeedInterval:
		if b.updateSettings(ctx, req, familyID, model.SettingsPatch{FeedInterval: &cmd.Hours}) {
			b.reply(ctx, req, fmt.Sprintf("✅ Feeding interval set: %d h", cmd.Hours), nil)
			b.settingsMenu(ctx, req, familyID)
		}

	case conversation.CmdSetDiaperInterval:
		if b.updateSettings(ctx, req, familyID, model.SettingsPatch{DiaperInterval: &cmd.Hours}) {
			b.reply(ctx, req, fmt.Sprintf("✅ Diaper interval set: %d h", cmd.Hours), nil)
			b.settingsMenu(ctx, req, familyID)
		}

	case conversation.CmdToggleTips:
		on, err := b.care.ToggleTips(familyID)
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.reply(ctx, req, "✅ Tips "+onOff(on, "enabled", "disabled"), nil)
		b.settingsMenu(ctx, req, familyID)

	case conversation.CmdTipsTimeMenu:
		b.reply(ctx, req, "Choose when to receive tips:", clockKeyboard("tips_time_", tipTimes, "back_to_settings"))

	case conversation.CmdSetTipsTime:
		if b.updateSettings(ctx, req, familyID, model.SettingsPatch{TipsTime: &cmd.Time}) {
			b.reply(ctx, req, "✅ Tips time set: "+cmd.Time.String(), nil)
			b.settingsMenu(ctx, req, familyID)
		}

	case conversation.CmdBathMenu:
		b.bathMenu(ctx, req, familyID)

	case conversation.CmdSetBathInterval:
		if b.updateSettings(ctx, req, familyID, model.SettingsPatch{BathInterval: &cmd.Days}) {
			b.reply(ctx, req, fmt.Sprintf("✅ Bath interval set: %d day(s)", cmd.Days), nil)
			b.bathMenu(ctx, req, familyID)
		}

	case conversation.CmdSetBathTime:
		if b.updateSettings(ctx, req, familyID, model.SettingsPatch{BathTime: &cmd.Time}) {
			b.reply(ctx, req, "✅ Bath time set: "+cmd.Time.String(), nil)
			b.bathMenu(ctx, req, familyID)
		}

	case conversation.CmdToggleBath:
		on, err := b.care.ToggleBath(familyID)
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		b.reply(ctx, req, "✅ Bath reminders "+onOff(on, "enabled", "disabled"), nil)
		b.bathMenu(ctx, req, familyID)

	case conversation.CmdMyRole:
		m, err := b.care.Member(familyID, req.userID)
		if err != nil {
			b.fail(ctx, req, err)
			return
		}
		if m == nil {
			b.fail(ctx, req, care.ErrNoFamily)
			return
		}
		b.reply(ctx, req, fmt.Sprintf("👤 Your role: %s\nName: %s", m.Role, m.Name), backKeyboard("back_to_settings"))

	case conversation.CmdFamilyManagement:
		b.familyMenu(ctx, req, familyID)

	case conversation.CmdInvite:
		b.issueInvite(ctx, req, familyID)

	case conversation.CmdDashboard:
		b.issueDashboard(ctx, req, familyID)

	default:
		b.logger.Warn("unhandled command", "user_id", req.userID, "kind", cmd.Kind)
	}
}

func (b *Bot) updateSettings(ctx context.Context, req request, familyID int64, p model.SettingsPatch) bool {
	if _, err := b.care.UpdateSettings(familyID, p); err != nil {
		b.fail(ctx, req, err)
		return false
	}
	return true
}

func (b *Bot) issueInvite(ctx context.Context, req request, familyID int64) {
	m, err := b.care.Member(familyID, req.userID)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}
	if m == nil || m.Role != model.RoleAdministrator {
		b.reply(ctx, req, "❌ Only the family administrator can invite members.", backKeyboard("family_management"))
		return
	}
	token, err := b.tokens.IssueInvite(familyID, b.cfg.InviteTTL)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}
	b.reply(ctx, req, fmt.Sprintf(
		"🔗 Forward this to the person you want to invite. They should send it to the bot:\n\n/join %s\n\nThe invite is valid for %s.",
		token, humanDuration(b.cfg.InviteTTL)), nil)
}

func (b *Bot) issueDashboard(ctx context.Context, req request, familyID int64) {
	token, err := b.tokens.IssueDashboard(familyID, b.cfg.DashboardTTL)
	if err != nil {
		b.fail(ctx, req, err)
		return
	}
	link := fmt.Sprintf("%s/api/family?token=%s", strings.TrimRight(b.cfg.PublicURL, "/"), token)
	b.reply(ctx, req, fmt.Sprintf("📊 Family dashboard (valid for %s):\n%s", humanDuration(b.cfg.DashboardTTL), link), nil)
}

func onOff(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

func humanDuration(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if d == time.Hour {
		return "1 hour"
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
