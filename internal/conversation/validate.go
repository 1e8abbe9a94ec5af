package conversation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/babycare/internal/model"
)

const (
	MaxNameLength = 50
	MaxWeightKg   = 50.0
	MaxHeightCm   = 200.0
)

var ErrValidation = errors.New("validation failed")

// ValidationError carries the corrective message shown to the recipient.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FamilyName checks a new family's name.
func FamilyName(text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return "", invalid("family_name", "❌ The family name cannot be empty.")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", invalid("family_name", fmt.Sprintf("❌ The family name is too long. Maximum %d characters.", MaxNameLength))
	}
	return name, nil
}

// ProfileInput validates text entered for a baby profile field and returns
// the patch that applies it. Gender is chosen with buttons, never typed.
func ProfileInput(field Field, text string) (model.BabyPatch, error) {
	text = strings.TrimSpace(text)

	switch field {
	case FieldName:
		if text == "" {
			return model.BabyPatch{}, invalid(string(field), "❌ The name cannot be empty.")
		}
		if utf8.RuneCountInString(text) > MaxNameLength {
			return model.BabyPatch{}, invalid(string(field), fmt.Sprintf("❌ The name is too long. Maximum %d characters.", MaxNameLength))
		}
		return model.BabyPatch{Name: &text}, nil

	case FieldBirth:
		if _, err := time.Parse(model.BirthDateLayout, text); err != nil {
			return model.BabyPatch{}, invalid(string(field), "❌ Invalid date format. Use DD.MM.YYYY")
		}
		return model.BabyPatch{BirthDate: &text}, nil

	case FieldWeight:
		w, err := parseMeasure(text)
		if err != nil {
			return model.BabyPatch{}, invalid(string(field), "❌ Invalid weight format. Enter a number (for example: 7.5)")
		}
		if w < 0 || w > MaxWeightKg {
			return model.BabyPatch{}, invalid(string(field), "❌ Invalid weight. Enter a number from 0 to 50 kg.")
		}
		return model.BabyPatch{Weight: &w}, nil

	case FieldHeight:
		h, err := parseMeasure(text)
		if err != nil {
			return model.BabyPatch{}, invalid(string(field), "❌ Invalid height format. Enter a number (for example: 68.5)")
		}
		if h < 0 || h > MaxHeightCm {
			return model.BabyPatch{}, invalid(string(field), "❌ Invalid height. Enter a number from 0 to 200 cm.")
		}
		return model.BabyPatch{Height: &h}, nil
	}

	return model.BabyPatch{}, invalid(string(field), "❌ This field cannot be entered as text.")
}

func parseMeasure(text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	return v, nil
}

// Gender maps a gender button choice to the stored value.
func Gender(choice string) (string, error) {
	switch choice {
	case "m":
		return model.GenderBoy, nil
	case "f":
		return model.GenderGirl, nil
	}
	return "", invalid("gender", fmt.Sprintf("unknown gender choice %q", choice))
}
