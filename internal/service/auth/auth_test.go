package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	byEmail map[string]*models.User
	tokens  map[uuid.UUID]string
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byEmail: map[string]*models.User{}, tokens: map[uuid.UUID]string{}}
	for _, u := range users {
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) (bool, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return false, nil
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = u
	return true, nil
}

func (m *memUsers) SetPushToken(_ context.Context, id uuid.UUID, token string) error {
	if _, err := m.GetByID(context.Background(), id); err != nil {
		return err
	}
	m.tokens[id] = token
	return nil
}

func newUser(t *testing.T, email, password string, role types.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &models.User{ID: uuid.New(), Name: "Test", Email: email, PasswordHash: string(hash), Role: role}
}

func newService(users *memUsers) *AuthService {
	return NewAuthService(users, NewTokenService("secret", time.Hour), logger.New(io.Discard, "test", "error"))
}

func TestLogin(t *testing.T) {
	ana := newUser(t, "ana@example.com", "s3cret", types.RoleEngineer)
	svc := newService(newMemUsers(ana))
	ctx := context.Background()

	token, user, err := svc.Login(ctx, " ANA@example.com ", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != ana.ID || token.Token == "" {
		t.Fatalf("unexpected login result")
	}

	got, err := svc.RoleCheck(ctx, token.Token)
	if err != nil {
		t.Fatalf("role check: %v", err)
	}
	if got.ID != ana.ID || got.Role != types.RoleEngineer {
		t.Fatalf("role check resolved wrong user %+v", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(newMemUsers(newUser(t, "ana@example.com", "s3cret", types.RoleEngineer)))

	for _, tc := range []struct{ email, password string }{
		{"ana@example.com", "wrong"},
		{"nobody@example.com", "s3cret"},
	} {
		if _, _, err := svc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, types.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestRoleCheckUnknownUser(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	ghost := &models.User{ID: uuid.New(), Email: "ghost@example.com", Role: types.RoleAdmin}

	token, err := tokens.Generate(context.Background(), ghost)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc := newService(newMemUsers())
	if _, err := svc.RoleCheck(context.Background(), token.Token); !errors.Is(err, types.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSavePushToken(t *testing.T) {
	ana := newUser(t, "ana@example.com", "s3cret", types.RoleInspector)
	users := newMemUsers(ana)
	svc := newService(users)

	if err := svc.SavePushToken(context.Background(), ana.ID, "fcm:abc"); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.SavePushToken(context.Background(), ana.ID, "ExponentPushToken[xyz]"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if users.tokens[ana.ID] != "ExponentPushToken[xyz]" {
		t.Fatalf("token not stored")
	}
	if err := svc.SavePushToken(context.Background(), uuid.New(), "ExponentPushToken[xyz]"); !errors.Is(err, types.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")) != nil {
		t.Fatalf("hash does not verify")
	}
}

func TestRegister(t *testing.T) {
	users := newMemUsers()
	svc := newService(users)
	ctx := context.Background()

	in := models.Registration{
		Name:      " Luisa ",
		Email:     " Luisa@Example.com",
		Password:  "s3cret",
		Role:      types.RoleInspector,
		Transport: types.TransportMotorcycle,
		Region:    types.RegionQuindio,
	}
	user, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "luisa@example.com" || user.Name != "Luisa" || user.ID == uuid.Nil {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "s3cret" {
		t.Fatalf("password stored in clear")
	}

	// The new account can log in right away.
	if _, _, err := svc.Login(ctx, "luisa@example.com", "s3cret"); err != nil {
		t.Fatalf("login after register: %v", err)
	}

	in.Email = "LUISA@example.com"
	if _, err := svc.Register(ctx, in); !errors.Is(err, types.ErrEmailTaken) || !errors.Is(err, types.ErrConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
}
