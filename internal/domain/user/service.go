package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	tokenTTL time.Duration
}

func NewService(repo Repository, tokens TokenIssuer, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, tokens: tokens, tokenTTL: tokenTTL}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Username, u.IsSuperuser)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokenTTL.Seconds()),
		User:      u,
	}, nil
}

func (s *Service) Me(ctx context.Context, actor Actor) (*User, error) {
	return s.repo.GetByID(ctx, actor.ID)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, actor Actor) ([]User, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *Service) ListStaff(ctx context.Context) ([]StaffOption, error) {
	users, err := s.repo.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StaffOption, 0, len(users))
	for _, u := range users {
		out = append(out, StaffOption{ID: u.ID, Username: u.Username})
	}
	return out, nil
}

// IsAssignableOwner reports whether id names an active staff user.
func (s *Service) IsAssignableOwner(ctx context.Context, id int64) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsStaff && u.IsActive, nil
}

// Username resolves an owner id for display; unknown ids resolve to "".
func (s *Service) Username(ctx context.Context, id int64) (string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}
	return u.Username, nil
}

func (s *Service) Create(ctx context.Context, actor Actor, req CreateUserRequest) (*User, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	isStaff := true
	if req.IsStaff != nil {
		isStaff = *req.IsStaff
	}

	u := &User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		IsStaff:      isStaff,
		IsSuperuser:  req.IsAdmin,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	return s.repo.Delete(ctx, id)
}
