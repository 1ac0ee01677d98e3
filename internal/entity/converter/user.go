package converter

import (
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
	"strings"
)

// UserToSummary converts a db.User to dto.UserSummary. Encrypted key values
// are never copied over; only the per-slot mode and whether a key is set.
func UserToSummary(u *db.User) dto.UserSummary {
	if u == nil {
		return dto.UserSummary{}
	}
	return dto.UserSummary{
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		KeySlots: []dto.KeySlot{
			makeKeySlot("gemini_1", u.GeminiKey1, u.GeminiKey1Mode),
			makeKeySlot("gemini_2", u.GeminiKey2, u.GeminiKey2Mode),
			makeKeySlot("gemini_3", u.GeminiKey3, u.GeminiKey3Mode),
			makeKeySlot("fal", u.FalKey, u.FalKeyMode),
		},
		HasAPIKey: strings.TrimSpace(u.AppAPIKey) != "",
	}
}

func makeKeySlot(slot, encryptedValue, mode string) dto.KeySlot {
	if strings.TrimSpace(mode) == "" {
		mode = db.KeyModeGlobal
	}
	return dto.KeySlot{
		Slot:       slot,
		Mode:       mode,
		Configured: strings.TrimSpace(encryptedValue) != "",
	}
}

// UsersToSummaries converts a slice of db.User to dto.UserSummary.
func UsersToSummaries(users []db.User) []dto.UserSummary {
	summaries := make([]dto.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = UserToSummary(&u)
	}
	return summaries
}
