package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// tokenTTL bounds how long an issued access token stays valid.
const tokenTTL = 12 * time.Hour

// ErrTooManyAttempts is returned when the per-identifier login limiter trips.
var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (UserResponse, error)
}

type userService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewUserService(userRepo repository.UserRepository, jwtSecret []byte) UserService {
	return &userService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	if role != model.RoleAdmin && role != model.RoleStaff {
		return UserResponse{}, errors.New("invalid role: must be admin or staff")
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return UserResponse{}, errors.New("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, errors.New("failed to hash password")
	}

	// First account in an empty install becomes the admin.
	if count, err := s.userRepo.Count(ctx); err == nil && count == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return UserResponse{}, err
	}

	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	if !s.loginLimiter(req.Email).Allow() {
		return TokenResponse{}, ErrTooManyAttempts
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return TokenResponse{}, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, errors.New("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return TokenResponse{}, errors.New("failed to generate token")
	}

	return TokenResponse{Token: signed, User: toUserResponse(user)}, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, ErrNotFound
	}
	return toUserResponse(user), nil
}

// --- Helpers ---

// loginLimiter hands out a per-email limiter allowing five attempts a minute.
func (s *userService) loginLimiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[email]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/5), 5)
		s.limiters[email] = limiter
	}
	return limiter
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
