// internal/service/user.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

const minPasswordLength = 8

type UserService struct {
	repo           *repository.UserRepository
	memberships    *repository.MembershipRepository
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
}

func NewUserService(
	repo *repository.UserRepository,
	memberships *repository.MembershipRepository,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
) *UserService {
	return &UserService{
		repo:           repo,
		memberships:    memberships,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
	}
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ValidatePassword enforces the minimum length and forbids passwords that
// contain the account's e-mail.
func ValidatePassword(email, password string) error {
	if len([]rune(password)) < minPasswordLength {
		return domain.ErrPasswordTooWeak
	}
	normalized := model.NormalizeEmail(email)
	if normalized != "" && strings.Contains(strings.ToLower(password), normalized) {
		return domain.ErrPasswordHasEmail
	}
	return nil
}

func (s *UserService) Signup(ctx context.Context, input SignupInput) (*AuthOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, input.Email, input.Password, false)
	if err != nil {
		return nil, err
	}
	return s.issue(user, auth.ScopeAPI)
}

// EnsureSuperuser creates the superuser when the e-mail is unknown and
// promotes the existing account otherwise.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (*model.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.IsSuperuser {
			return existing, false, nil
		}
		existing.IsSuperuser = true
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	user, err := s.create(ctx, email, password, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, email, password string, superuser bool) (*model.User, error) {
	if err := ValidatePassword(email, password); err != nil {
		return nil, err
	}

	hash, err := s.passwordHasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues an API token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(user, auth.ScopeAPI)
}

// AdminLogin is Login restricted to superusers, issuing a back-office token.
func (s *UserService) AdminLogin(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperuser {
		return nil, domain.ErrSuperuserRequired
	}
	return s.issue(user, auth.ScopeAdmin)
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.passwordHasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if s.passwordHasher.NeedsRehash(user.PasswordHash) {
		if hash, err := s.passwordHasher.Hash(password); err == nil {
			user.PasswordHash = hash
			if err := s.repo.Update(ctx, user); err != nil {
				slog.WarnContext(ctx, "password rehash not stored", "error", err, "userID", user.ID)
			}
		}
	}
	return user, nil
}

func (s *UserService) issue(user *model.User, scope string) (*AuthOutput, error) {
	token, err := s.tokenManager.Generate(user.ID.String(), user.Email, scope)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthOutput{User: user, Token: token}, nil
}

// ActorFromToken validates an API or admin token and loads the live account.
func (s *UserService) ActorFromToken(ctx context.Context, token, scope string) (policy.Actor, error) {
	claims, err := s.tokenManager.Validate(token, scope)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("%w: malformed subject", domain.ErrUnauthorized)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return policy.Actor{}, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
		}
		return policy.Actor{}, err
	}
	if !user.IsActive {
		return policy.Actor{}, domain.ErrUserInactive
	}
	return policy.Actor{UserID: user.ID, Email: user.Email, IsSuperuser: user.IsSuperuser}, nil
}

func (s *UserService) Me(ctx context.Context, actor policy.Actor) (*model.User, error) {
	return s.repo.FindByID(ctx, actor.UserID)
}

// DeleteMe removes the actor's account unless they still belong to a company.
func (s *UserService) DeleteMe(ctx context.Context, actor policy.Actor) error {
	count, err := s.memberships.CountByUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrUserStillMember
	}
	return s.repo.Delete(ctx, actor.UserID)
}

func (s *UserService) List(ctx context.Context, page repository.PageParams) ([]*model.User, int64, error) {
	return s.repo.FindAllPaginated(ctx, page)
}
