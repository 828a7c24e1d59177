package user

import "context"

// Repository is the storage the user service depends on.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListStaff(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id int64) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(userID int64, username string, isAdmin bool) (string, error)
}
