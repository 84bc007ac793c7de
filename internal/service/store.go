package service

import (
	"context"

	"openlingua/internal/model"
)

// UserStore is the narrow view of user persistence the auth flows need.
// Lookups return model.ErrUserNotFound when nothing matches; Create returns
// an error wrapping model.ErrUserAlreadyExists when a unique key is taken.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.AuditEntry, error)
}
