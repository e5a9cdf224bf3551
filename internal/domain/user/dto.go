package user

import "time"

type Response struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	CreditsBalance int       `json:"creditsBalance"`
	Plan           string    `json:"plan"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToResponse(p *Profile) Response {
	resp := Response{
		ID:             p.ID.String(),
		Name:           p.Name,
		Email:          p.Email,
		CreditsBalance: p.CreditsBalance,
		Plan:           string(p.Plan),
		CreatedAt:      p.CreatedAt,
	}
	if p.AvatarURL.Valid {
		resp.AvatarURL = p.AvatarURL.String
	}
	return resp
}
