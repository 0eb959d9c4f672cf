package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexus-market/nexus-backend/internal/users"
	pkgauth "github.com/nexus-market/nexus-backend/pkg/auth"
	"github.com/nexus-market/nexus-backend/pkg/auth/session"
	"github.com/nexus-market/nexus-backend/pkg/config"
	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexus-market/nexus-backend/pkg/errors"
	"github.com/nexus-market/nexus-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail   map[string]*models.User
	byID      map[uuid.UUID]*models.User
	createErr error
	lastLogin int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *stubUserRepo) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.byEmail[dto.Email]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "users_email_key"`)
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin++
	return nil
}

type stubSessionManager struct {
	generated int
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated++
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return session.NewAccessID(), "rotated-token", nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "nexus",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60,
	}
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: email, PasswordHash: hash, Role: role}
	repo.add(user)
	return user
}

func TestLoginSuccessMintsSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	user := seedUser(t, repo, "buyer@example.com", "correct horse", enums.UserRoleCustomer)
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Buyer@Example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a minted token pair")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if repo.lastLogin != 1 {
		t.Fatalf("expected last login recorded once, got %d", repo.lastLogin)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "buyer@example.com", "correct horse", enums.UserRoleCustomer)
	svc := newAuthService(t, repo, &stubSessionManager{})

	_, wrongPass := errMessage(svc.Login(context.Background(), LoginRequest{Email: "buyer@example.com", Password: "nope"}))
	_, unknown := errMessage(svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "nope"}))

	if wrongPass != unknown {
		t.Fatalf("error messages must match: %q vs %q", wrongPass, unknown)
	}
	if wrongPass != invalidCredentialsMessage {
		t.Fatalf("unexpected message %q", wrongPass)
	}
}

func errMessage(resp *SessionResponse, err error) (*SessionResponse, string) {
	if err == nil {
		return resp, ""
	}
	return resp, pkgerrors.As(err).Message()
}

func TestRegisterCreatesCustomerAndLogsIn(t *testing.T) {
	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Example.com",
		Password: "long enough secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}
	if resp.User.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %q", resp.User.Email)
	}
	if sessions.generated != 1 {
		t.Fatal("expected a session after registration")
	}

	stored := repo.byEmail["new@example.com"]
	if stored.PasswordHash == "long enough secret" {
		t.Fatal("password stored in the clear")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "taken@example.com", "whatever pass", enums.UserRoleCustomer)
	svc := newAuthService(t, repo, &stubSessionManager{})

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "taken@example.com", Password: "long enough secret"})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &stubSessionManager{})
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, "buyer@example.com", "correct horse", enums.UserRoleCustomer)
	svc := newAuthService(t, repo, &stubSessionManager{})

	accessToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "anything"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.RefreshToken != "rotated-token" {
		t.Fatalf("expected rotated token, got %q", resp.RefreshToken)
	}
}

func TestRefreshInvalidTokenUnauthorized(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, "buyer@example.com", "correct horse", enums.UserRoleCustomer)
	sessions := &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := newAuthService(t, repo, sessions)

	accessToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "stolen"})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newAuthService(t, newStubUserRepo(), sessions)

	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-123" {
		t.Fatalf("expected revoke call, got %v", sessions.revoked)
	}
}

func TestPasswordResetIsOpaque(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "buyer@example.com", "correct horse", enums.UserRoleCustomer)
	svc := newAuthService(t, repo, &stubSessionManager{})

	if err := svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "buyer@example.com"}); err != nil {
		t.Fatalf("known email: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
}
