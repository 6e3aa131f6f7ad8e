package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"car_dealership/internal/domain"
)

type AccountService struct {
	users domain.UserRepository
	cost  int
}

// NewAccountService hashes passwords with bcrypt at cost (DefaultCost when <= 0).
func NewAccountService(u domain.UserRepository, cost int) *AccountService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{users: u, cost: cost}
}

// Register creates an account. A taken username yields domain.ErrAlreadyRegistered.
func (s *AccountService) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return domain.User{}, fmt.Errorf("%w: userName and password are required", domain.ErrInvalidInput)
	}

	exists, err := s.users.UserExists(ctx, in.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return domain.User{}, domain.ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
	}
	// CreateUser also reports ErrAlreadyRegistered when a concurrent request won the race
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	return u, nil
}

// Authenticate checks a username/password pair; any mismatch is domain.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}
