package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/sqldb"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenConfig controls token signing and lifetimes.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AdminTTL   time.Duration
	StudentTTL time.Duration
}

// LoginResult is returned by a successful admin login.
type LoginResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Token    string `json:"token"`
}

type tokenClaims struct {
	Role       string `json:"role"`
	AdminID    int64  `json:"id,omitempty"`
	Username   string `json:"username,omitempty"`
	StudentID  int64  `json:"studentId,omitempty"`
	ActivityID int64  `json:"activityId,omitempty"`
	jwt.RegisteredClaims
}

// AuthService handles admin accounts and token issuance/verification.
type AuthService struct {
	store  *sqldb.Store
	cfg    TokenConfig
	secret []byte
	clock  func() time.Time
}

func NewAuthService(store *sqldb.Store, cfg TokenConfig) *AuthService {
	if cfg.AdminTTL <= 0 {
		cfg.AdminTTL = time.Hour
	}
	if cfg.StudentTTL <= 0 {
		cfg.StudentTTL = 24 * time.Hour
	}
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		clock:  time.Now,
	}
}

// CreateAdmin hashes the password and stores a new admin.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password, fullName string) (domain.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Admin{}, domain.InvalidInput("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin := domain.Admin{Username: username, PasswordHash: string(hash), FullName: fullName}
	id, err := s.store.CreateAdmin(ctx, admin)
	if err != nil {
		return domain.Admin{}, err
	}
	admin.ID = id
	return admin, nil
}

// EnsureDefaultAdmin creates the bootstrap admin when no admin exists yet.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password, fullName string) error {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) > 0 || username == "" {
		return nil
	}
	if _, err := s.CreateAdmin(ctx, username, password, fullName); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	log.Printf("auth: created default admin %q", username)
	return nil
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	return s.store.ListAdmins(ctx)
}

func (s *AuthService) AdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	return s.store.AdminByUsername(ctx, username)
}

func (s *AuthService) DeleteAdmin(ctx context.Context, id int64) error {
	return s.store.DeleteAdmin(ctx, id)
}

// Login checks credentials and issues an admin token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	invalid := fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)

	admin, err := s.store.AdminByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, invalid
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, invalid
	}

	token, err := s.sign(tokenClaims{Role: domain.RoleAdmin, AdminID: admin.ID, Username: admin.Username}, s.cfg.AdminTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{ID: admin.ID, Username: admin.Username, FullName: admin.FullName, Token: token}, nil
}

// IssueStudentToken creates the token encoded in a student's QR code.
// The student must be assigned to the activity.
func (s *AuthService) IssueStudentToken(ctx context.Context, studentID, activityID int64) (string, error) {
	if _, err := s.store.EnrollmentID(ctx, activityID, studentID); err != nil {
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return "", domain.ErrNotEnrolled
		}
		return "", err
	}
	return s.sign(tokenClaims{Role: domain.RoleStudent, StudentID: studentID, ActivityID: activityID}, s.cfg.StudentTTL)
}

// Authenticate verifies a bearer token and resolves the caller.
func (s *AuthService) Authenticate(raw string) (domain.Principal, error) {
	claims := &tokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	switch claims.Role {
	case domain.RoleAdmin:
		if claims.AdminID == 0 {
			break
		}
		return domain.AdminPrincipal{AdminID: claims.AdminID, Username: claims.Username}, nil
	case domain.RoleStudent:
		if claims.StudentID == 0 || claims.ActivityID == 0 {
			break
		}
		return domain.StudentPrincipal{StudentID: claims.StudentID, ActivityID: claims.ActivityID}, nil
	}
	return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
}

func (s *AuthService) sign(claims tokenClaims, ttl time.Duration) (string, error) {
	now := s.clock()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
