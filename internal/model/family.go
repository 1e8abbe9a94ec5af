package model

// Role labels given to members by the bot.
const (
	RoleAdministrator = "Administrator"
	RoleParent        = "Parent"
)

type Family struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Member links a chat recipient to exactly one family.
type Member struct {
	FamilyID int64  `json:"family_id"`
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}
