package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/duamedical/medserve/internal/shared"
)

// Service coordinates agent records and authentication.
type Service struct {
	repo     Repository
	tokens   TokenStore
	notifier shared.ChangeNotifier
	logger   *slog.Logger
	cost     int
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, tokens TokenStore, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) List(ctx context.Context) ([]Agent, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	agents, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(agents), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	return s.repo.Get(ctx, id)
}

// Create registers an agent. Name, email and password are required.
func (s *Service) Create(ctx context.Context, req AgentRequest) (*Agent, error) {
	req = req.normalized()
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	verr := &shared.ValidationError{}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		verr.Add("name", "is required")
	}
	if req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		verr.Add("email", "is required")
	}
	if req.Password == nil || *req.Password == "" {
		verr.Add("password", "is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	now := s.now().UTC()
	a := &Agent{
		ID:          uuid.New(),
		Status:      StatusActive,
		JoinDate:    now,
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	req.apply(a)
	if err := s.ensureEmailFree(ctx, a.Email, uuid.Nil); err != nil {
		return nil, err
	}
	hash, err := s.hash(*req.Password)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash

	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return a, nil
}

// Update changes the supplied fields. A new password or deactivation ends
// every open session of the agent.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req AgentRequest) (*Agent, error) {
	req = req.normalized()
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := a.Active()
	req.apply(a)
	if a.Name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	if a.Email == "" {
		return nil, shared.NewValidationError("email", "is required")
	}
	if req.Email != nil {
		if err := s.ensureEmailFree(ctx, a.Email, a.ID); err != nil {
			return nil, err
		}
	}
	passwordChanged := req.Password != nil && *req.Password != ""
	if passwordChanged {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = hash
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	if passwordChanged || (wasActive && !a.Active()) {
		s.revokeAll(ctx, a.ID)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeAll(ctx, id)
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req = req.normalized()
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	a, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.Active() {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if s.tokens == nil {
		return nil, errors.New("agents: token store not configured")
	}
	token, expiresAt, err := s.tokens.Issue(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("agent logged in", slog.String("agent_id", a.ID.String()))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Agent: a}, nil
}

// Session resolves a bearer token to its active agent.
func (s *Service) Session(ctx context.Context, token string) (*Agent, error) {
	if s.tokens == nil {
		return nil, shared.ErrUnauthorized
	}
	id, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !a.Active() {
		return nil, shared.ErrUnauthorized
	}
	return a, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if s.tokens == nil {
		return nil
	}
	return s.tokens.Revoke(ctx, token)
}

// ComputeStats summarises agents. averageSales is 0 when there are none.
func ComputeStats(agents []Agent) Stats {
	total := decimal.Zero
	active := 0
	for _, a := range agents {
		total = total.Add(decimal.NewFromFloat(a.Sales))
		if a.Active() {
			active++
		}
	}
	stats := Stats{TotalAgents: len(agents), ActiveAgents: active}
	stats.TotalSales, _ = total.Round(2).Float64()
	if len(agents) > 0 {
		stats.AverageSales, _ = total.Div(decimal.NewFromInt(int64(len(agents)))).Round(2).Float64()
	}
	return stats
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == self {
		return nil
	}
	return shared.Duplicate("Agent email")
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *Service) revokeAll(ctx context.Context, id uuid.UUID) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.RevokeAgent(ctx, id); err != nil {
		s.logger.Warn("revoke agent tokens", slog.String("agent_id", id.String()), slog.Any("error", err))
	}
}
