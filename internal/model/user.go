package model

import "time"

// User is the local account record owned by the user store.
type User struct {
	ID           string
	Email        string
	PasswordHash *string
	GoogleID     *string
	Name         string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created through Google carry no hash.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// Claim is the identity carried inside a credential. Refresh credentials
// leave Email empty.
type Claim struct {
	Subject string
	Email   string
}

type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// Principal is what the authentication gate attaches to a request.
type Principal struct {
	UserID string
	Email  string
	// Rotated is set when the request was admitted through the refresh
	// credential and a fresh pair was written to the response.
	Rotated bool
}

// ExternalProfile is the normalized identity returned by an OAuth provider.
type ExternalProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}
