package model

const anonymousDisplayName = "Anonymous User"

// Profile is the signed-in user as reported by the identity provider.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

func (p Profile) Name() string {
	if p.DisplayName == "" {
		return anonymousDisplayName
	}
	return p.DisplayName
}
