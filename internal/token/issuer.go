package token

import (
	"errors"
	"fmt"
	"time"

	"openlingua/internal/model"
)

// Issuer mints access/refresh pairs from two independently keyed codecs.
type Issuer struct {
	access  *Codec
	refresh *Codec
}

func NewIssuer(access *Codec, refresh *Codec) (*Issuer, error) {
	if access == nil || refresh == nil {
		return nil, errors.New("access and refresh codecs are required")
	}

	return &Issuer{access: access, refresh: refresh}, nil
}

func (i *Issuer) Issue(subjectID string, email string) (model.CredentialPair, error) {
	accessToken, err := i.access.Encode(model.Claim{Subject: subjectID, Email: email})
	if err != nil {
		return model.CredentialPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := i.refresh.Encode(model.Claim{Subject: subjectID})
	if err != nil {
		return model.CredentialPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return model.CredentialPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (i *Issuer) VerifyAccess(tokenString string) (model.Claim, error) {
	return i.access.Decode(tokenString)
}

func (i *Issuer) VerifyRefresh(tokenString string) (model.Claim, error) {
	return i.refresh.Decode(tokenString)
}

func (i *Issuer) AccessTTL() time.Duration {
	return i.access.TTL()
}

func (i *Issuer) RefreshTTL() time.Duration {
	return i.refresh.TTL()
}
