package agents

import (
	"strings"

	"github.com/duamedical/medserve/internal/shared"
)

// AgentRequest is the create/update payload. On update only the fields
// present change; a present password is re-hashed.
type AgentRequest struct {
	Name        *string        `json:"name"`
	Email       *string        `json:"email" validate:"omitempty,email"`
	Password    *string        `json:"password" validate:"omitempty,min=6"`
	Phone       *string        `json:"phone"`
	City        *string        `json:"city"`
	Sales       *shared.Number `json:"sales" validate:"omitempty,gte=0"`
	Status      *string        `json:"status" validate:"omitempty,oneof=Active Inactive"`
	JoinDate    *shared.Date   `json:"joinDate"`
	Permissions []string       `json:"permissions" validate:"omitempty,dive,oneof=dashboard inventory customers invoices quotations accounting delivery reports agents"`
}

func (r AgentRequest) apply(a *Agent) {
	if r.Name != nil {
		a.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		a.Email = normalizeEmail(*r.Email)
	}
	if r.Phone != nil {
		a.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.City != nil {
		a.City = strings.TrimSpace(*r.City)
	}
	if r.Sales != nil {
		a.Sales = r.Sales.Float()
	}
	if r.Status != nil && *r.Status != "" {
		a.Status = Status(*r.Status)
	}
	if r.JoinDate != nil && !r.JoinDate.IsZero() {
		a.JoinDate = r.JoinDate.Time
	}
	if r.Permissions != nil {
		a.Permissions = dedupe(r.Permissions)
	}
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// normalized trims and lower-cases the email so validation sees the stored form.
func (r AgentRequest) normalized() AgentRequest {
	if r.Email != nil {
		email := normalizeEmail(*r.Email)
		r.Email = &email
	}
	return r
}

func (r LoginRequest) normalized() LoginRequest {
	r.Email = normalizeEmail(r.Email)
	return r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
