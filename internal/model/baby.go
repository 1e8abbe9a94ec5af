package model

import "time"

// BirthDateLayout is the dd.mm.yyyy form birth dates are entered and stored in.
const BirthDateLayout = "02.01.2006"

const (
	GenderUnspecified = "Not specified"
	GenderBoy         = "Boy"
	GenderGirl        = "Girl"
)

const DefaultBabyName = "Baby"

// BabyInfo is the child profile of a family. BirthDate is empty when unknown.
type BabyInfo struct {
	FamilyID  int64   `json:"family_id"`
	Name      string  `json:"name"`
	BirthDate string  `json:"birth_date"`
	Gender    string  `json:"gender"`
	Weight    float64 `json:"weight"`
	Height    float64 `json:"height"`
}

func DefaultBabyInfo(familyID int64) BabyInfo {
	return BabyInfo{
		FamilyID: familyID,
		Name:     DefaultBabyName,
		Gender:   GenderUnspecified,
	}
}

// AgeMonths returns the completed months between the birth date and now, or 0
// when the birth date is missing or unreadable.
func (b BabyInfo) AgeMonths(now time.Time) int {
	if b.BirthDate == "" {
		return 0
	}
	birth, err := time.ParseInLocation(BirthDateLayout, b.BirthDate, now.Location())
	if err != nil {
		return 0
	}
	months := (now.Year()-birth.Year())*12 + int(now.Month()) - int(birth.Month())
	if now.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// BabyPatch names the profile fields to change; nil fields are left alone.
type BabyPatch struct {
	Name      *string
	BirthDate *string
	Gender    *string
	Weight    *float64
	Height    *float64
}

func (p BabyPatch) Empty() bool {
	return p.Name == nil && p.BirthDate == nil && p.Gender == nil && p.Weight == nil && p.Height == nil
}
