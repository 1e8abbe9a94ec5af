package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/babycare/internal/model"
)

type CommandKind int

const (
	CmdFeeding CommandKind = iota
	CmdDiaper
	CmdStats
	CmdSettings
	CmdCreateFamily
	CmdJoinFamily
	CmdBackToStart
	CmdBackToSettings
	CmdBabyInfo
	CmdEditBaby
	CmdSetGender
	CmdFeedIntervalMenu
	CmdSetFeedInterval
	CmdDiaperIntervalMenu
	CmdSetDiaperInterval
	CmdToggleTips
	CmdTipsTimeMenu
	CmdSetTipsTime
	CmdBathMenu
	CmdSetBathInterval
	CmdSetBathTime
	CmdToggleBath
	CmdMyRole
	CmdFamilyManagement
	CmdInvite
	CmdDashboard
)

var plainCommands = map[string]CommandKind{
	"feeding":              CmdFeeding,
	"diaper":               CmdDiaper,
	"stats":                CmdStats,
	"settings":             CmdSettings,
	"create_family":        CmdCreateFamily,
	"join_family":          CmdJoinFamily,
	"back_to_start":        CmdBackToStart,
	"back_to_settings":     CmdBackToSettings,
	"baby_info":            CmdBabyInfo,
	"feed_interval_menu":   CmdFeedIntervalMenu,
	"diaper_interval_menu": CmdDiaperIntervalMenu,
	"toggle_tips":          CmdToggleTips,
	"tips_time_menu":       CmdTipsTimeMenu,
	"bath_menu":            CmdBathMenu,
	"toggle_bath":          CmdToggleBath,
	"my_role":              CmdMyRole,
	"family_management":    CmdFamilyManagement,
	"invite":               CmdInvite,
	"dashboard":            CmdDashboard,
}

const (
	MaxIntervalHours = 24
	MaxBathDays      = 14
)

// Command is a decoded button press. Only the payload field matching Kind
// is set.
type Command struct {
	Kind   CommandKind
	Field  Field
	Gender string
	Hours  int
	Days   int
	Time   model.ClockTime
}

// ParseCommand decodes callback data such as "feed_interval_3" or
// "bath_time_19_30".
func ParseCommand(data string) (Command, error) {
	if kind, ok := plainCommands[data]; ok {
		return Command{Kind: kind}, nil
	}

	switch {
	case strings.HasPrefix(data, "edit_baby_"):
		f, ok := fields[strings.TrimPrefix(data, "edit_baby_")]
		if !ok {
			return Command{}, fmt.Errorf("unknown profile field in %q", data)
		}
		return Command{Kind: CmdEditBaby, Field: f}, nil

	case strings.HasPrefix(data, "set_baby_gender_"):
		g, err := Gender(strings.TrimPrefix(data, "set_baby_gender_"))
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetGender, Gender: g}, nil

	case strings.HasPrefix(data, "feed_interval_"):
		n, err := parseBounded(strings.TrimPrefix(data, "feed_interval_"), MaxIntervalHours)
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetFeedInterval, Hours: n}, nil

	case strings.HasPrefix(data, "diaper_interval_"):
		n, err := parseBounded(strings.TrimPrefix(data, "diaper_interval_"), MaxIntervalHours)
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetDiaperInterval, Hours: n}, nil

	case strings.HasPrefix(data, "bath_interval_"):
		n, err := parseBounded(strings.TrimPrefix(data, "bath_interval_"), MaxBathDays)
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetBathInterval, Days: n}, nil

	case strings.HasPrefix(data, "tips_time_"):
		ct, err := parseClock(strings.TrimPrefix(data, "tips_time_"))
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetTipsTime, Time: ct}, nil

	case strings.HasPrefix(data, "bath_time_"):
		ct, err := parseClock(strings.TrimPrefix(data, "bath_time_"))
		if err != nil {
			return Command{}, fmt.Errorf("parse %q: %w", data, err)
		}
		return Command{Kind: CmdSetBathTime, Time: ct}, nil
	}

	return Command{}, fmt.Errorf("unknown command %q", data)
}

func parseBounded(s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("%d out of range 1..%d", n, max)
	}
	return n, nil
}

// parseClock reads "<hour>_<minute>".
func parseClock(s string) (model.ClockTime, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return model.ClockTime{}, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.ClockTime{}, fmt.Errorf("invalid hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.ClockTime{}, fmt.Errorf("invalid minute %q", parts[1])
	}
	ct := model.ClockTime{Hour: h, Minute: m}
	if !ct.Valid() {
		return model.ClockTime{}, fmt.Errorf("time %q out of range", s)
	}
	return ct, nil
}

// Data encodes a command back into callback data. It is the inverse of
// ParseCommand.
func (c Command) Data() string {
	for name, kind := range plainCommands {
		if kind == c.Kind {
			return name
		}
	}
	switch c.Kind {
	case CmdEditBaby:
		return "edit_baby_" + string(c.Field)
	case CmdSetGender:
		if c.Gender == model.GenderGirl {
			return "set_baby_gender_f"
		}
		return "set_baby_gender_m"
	case CmdSetFeedInterval:
		return fmt.Sprintf("feed_interval_%d", c.Hours)
	case CmdSetDiaperInterval:
		return fmt.Sprintf("diaper_interval_%d", c.Hours)
	case CmdSetBathInterval:
		return fmt.Sprintf("bath_interval_%d", c.Days)
	case CmdSetTipsTime:
		return fmt.Sprintf("tips_time_%d_%d", c.Time.Hour, c.Time.Minute)
	case CmdSetBathTime:
		return fmt.Sprintf("bath_time_%d_%d", c.Time.Hour, c.Time.Minute)
	}
	return ""
}
