package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratoshot/pratoshot-api/internal/domain/user"
	"github.com/pratoshot/pratoshot-api/internal/pkg/jwt"
)

type fakeUserRepo struct {
	byID    map[uuid.UUID]*user.Profile
	byEmail map[string]*user.Profile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[uuid.UUID]*user.Profile),
		byEmail: make(map[string]*user.Profile),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, p *user.Profile) error {
	if _, ok := f.byEmail[p.Email]; ok {
		return errors.New("duplicate email")
	}
	copied := *p
	f.byID[p.ID] = &copied
	f.byEmail[p.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	if p, ok := f.byID[id]; ok {
		p.PasswordHash = hash
	}
	return nil
}

type fakeGranter struct {
	calls []uuid.UUID
}

func (f *fakeGranter) GrantInitial(_ context.Context, userID uuid.UUID) error {
	f.calls = append(f.calls, userID)
	return nil
}

func newTestService() (*Service, *fakeUserRepo, *fakeGranter) {
	repo := newFakeUserRepo()
	granter := &fakeGranter{}
	jwtService := jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour)
	return NewService(repo, granter, jwtService, nil, nil), repo, granter
}

func TestRegisterIssuesTokensAndGrant(t *testing.T) {
	svc, repo, granter := newTestService()

	profile, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "supersecret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if profile.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalized lowercase", profile.Email)
	}
	if profile.Plan != user.PlanFree {
		t.Errorf("plan = %s, want FREE", profile.Plan)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Error("token pair missing")
	}
	if len(granter.calls) != 1 || granter.calls[0] != profile.ID {
		t.Errorf("grant calls = %v", granter.calls)
	}
	if repo.byEmail["ana@example.com"] == nil {
		t.Error("profile not persisted")
	}
	if repo.byEmail["ana@example.com"].PasswordHash == "supersecret1" {
		t.Error("password stored in plain text")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	req := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "supersecret1"}
	if _, _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, granter := newTestService()

	if _, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "supersecret1",
	}); err != nil {
		t.Fatal(err)
	}

	profile, tokens, err := svc.Login(context.Background(), LoginRequest{
		Email: "ana@example.com", Password: "supersecret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if tokens.Token == "" {
		t.Error("no access token issued")
	}
	// Register and login both attempt the grant; idempotency lives in
	// the ledger, so two calls are expected here.
	if len(granter.calls) != 2 {
		t.Errorf("grant calls = %d, want 2", len(granter.calls))
	}
	if profile.Email != "ana@example.com" {
		t.Errorf("email = %q", profile.Email)
	}

	if _, _, err := svc.Login(context.Background(), LoginRequest{
		Email: "ana@example.com", Password: "wrong",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "supersecret1",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newTestService()

	_, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "supersecret1",
	})
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if rotated.Token == "" || rotated.RefreshToken == "" {
		t.Error("rotated pair incomplete")
	}

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v", err)
	}
	if _, err := svc.Refresh(context.Background(), tokens.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token used as refresh: err = %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService()

	profile, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "supersecret1",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Me(context.Background(), profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != profile.ID {
		t.Errorf("got profile %s, want %s", got.ID, profile.ID)
	}

	if _, err := svc.Me(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}
