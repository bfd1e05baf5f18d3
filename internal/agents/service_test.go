package agents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duamedical/medserve/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	agents map[uuid.UUID]Agent
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{agents: make(map[uuid.UUID]Agent)}
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Agent{}
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, a *Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = *a
	return nil
}

func (r *memoryRepo) Save(ctx context.Context, a *Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[a.ID]; !ok {
		return ErrNotFound
	}
	r.agents[a.ID] = *a
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return ErrNotFound
	}
	delete(r.agents, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	svc := NewService(repo, NewRedisTokenStore(client, time.Hour), nil, nil).WithHashCost(bcrypt.MinCost)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return svc, repo, mr
}

func strptr(s string) *string { return &s }

func numptr(f float64) *shared.Number {
	n := shared.Number(f)
	return &n
}

func createAgent(t *testing.T, svc *Service, email, password string, sales float64) *Agent {
	t.Helper()
	a, err := svc.Create(context.Background(), AgentRequest{
		Name:        strptr("Agent " + email),
		Email:       strptr(email),
		Password:    strptr(password),
		Sales:       numptr(sales),
		Permissions: []string{PermQuotations, PermInvoices, PermQuotations},
	})
	require.NoError(t, err)
	return a
}

// ==== Create / Update ====

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a := createAgent(t, svc, "  Sara@Example.COM ", "secret1", 1200)
	require.Equal(t, "sara@example.com", a.Email)
	require.Equal(t, StatusActive, a.Status)
	require.Equal(t, []string{PermQuotations, PermInvoices}, a.Permissions)
	require.NotEqual(t, "secret1", a.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("secret1")))

	stored, err := repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.PasswordHash, stored.PasswordHash)
}

func TestCreateRequiresCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), AgentRequest{Name: strptr("No Email")})
	require.ErrorIs(t, err, shared.ErrValidation)

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")

	_, err = svc.Create(context.Background(), AgentRequest{
		Name: strptr("Short"), Email: strptr("short@example.com"), Password: strptr("123"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), AgentRequest{
		Name: strptr("Perm"), Email: strptr("perm@example.com"), Password: strptr("secret1"),
		Permissions: []string{"payroll"},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	createAgent(t, svc, "ali@example.com", "secret1", 0)

	_, err := svc.Create(context.Background(), AgentRequest{
		Name: strptr("Ali Again"), Email: strptr("ALI@example.com"), Password: strptr("secret2"),
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdatePasswordRehashesAndRevokesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)

	login, err := svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, AgentRequest{Password: strptr("changed1"), City: strptr("Lahore")})
	require.NoError(t, err)
	require.Equal(t, "Lahore", updated.City)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("changed1")))

	_, err = svc.Session(ctx, login.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "changed1"})
	require.NoError(t, err)
}

func TestUpdateKeepsOwnEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)

	updated, err := svc.Update(context.Background(), a.ID, AgentRequest{Email: strptr("Ali@Example.com")})
	require.NoError(t, err)
	require.Equal(t, "ali@example.com", updated.Email)
}

// ==== Login / Session ====

func TestLoginIssuesTokenResolvableThroughRedis(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)

	res, err := svc.Login(ctx, LoginRequest{Email: "Ali@Example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, a.ID, res.Agent.ID)
	require.True(t, mr.Exists("agent_token:"+res.Token))
	require.True(t, mr.TTL("agent_token:"+res.Token) > 0)

	got, err := svc.Session(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.Session(ctx, res.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestPaddedEmailIsTrimmedBeforeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)

	res, err := svc.Login(ctx, LoginRequest{Email: "  ALI@example.com  ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, a.ID, res.Agent.ID)

	updated, err := svc.Update(ctx, a.ID, AgentRequest{Email: strptr(" Ali.Khan@Example.com ")})
	require.NoError(t, err)
	require.Equal(t, "ali.khan@example.com", updated.Email)

	_, err = svc.Update(ctx, a.ID, AgentRequest{Email: strptr("  not an email ")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	createAgent(t, svc, "ali@example.com", "secret1", 0)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ali@example.com", Password: "nope123"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestInactiveAgentIsRefused(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)

	login, err := svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, AgentRequest{Status: strptr(string(StatusInactive))})
	require.NoError(t, err)

	_, err = svc.Session(ctx, login.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSessionExpires(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()
	createAgent(t, svc, "ali@example.com", "secret1", 0)

	res, err := svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = svc.Session(ctx, res.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDeleteRevokesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createAgent(t, svc, "ali@example.com", "secret1", 0)
	res, err := svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Session(ctx, res.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.ErrorIs(t, svc.Delete(ctx, a.ID), shared.ErrNotFound)
}

// ==== Stats ====

func TestComputeStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	createAgent(t, svc, "a@example.com", "secret1", 1000)
	b := createAgent(t, svc, "b@example.com", "secret1", 500.5)
	createAgent(t, svc, "c@example.com", "secret1", 0)
	_, err := svc.Update(ctx, b.ID, AgentRequest{Status: strptr("Inactive")})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalAgents)
	require.Equal(t, 2, stats.ActiveAgents)
	require.InDelta(t, 1500.5, stats.TotalSales, 1e-9)
	require.InDelta(t, 500.17, stats.AverageSales, 1e-9)

	require.Equal(t, Stats{}, ComputeStats(nil))
}
