// Package agents manages sales agents, their credentials and bearer-token
// sessions.
package agents

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Permissions an agent may be granted.
const (
	PermDashboard  = "dashboard"
	PermInventory  = "inventory"
	PermCustomers  = "customers"
	PermInvoices   = "invoices"
	PermQuotations = "quotations"
	PermAccounting = "accounting"
	PermDelivery   = "delivery"
	PermReports    = "reports"
	PermAgents     = "agents"
)

// Agent is a sales agent. The password hash never leaves the service.
type Agent struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	Sales        float64   `json:"sales"`
	Status       Status    `json:"status"`
	JoinDate     time.Time `json:"joinDate"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Active reports whether the agent may log in.
func (a *Agent) Active() bool {
	return a.Status == StatusActive
}

// Can reports whether the agent holds perm.
func (a *Agent) Can(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type Stats struct {
	TotalAgents  int     `json:"totalAgents"`
	ActiveAgents int     `json:"activeAgents"`
	TotalSales   float64 `json:"totalSales"`
	AverageSales float64 `json:"averageSales"`
}

type ListResult struct {
	Agents []Agent `json:"agents"`
	Stats  Stats   `json:"agentStats"`
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Agent     *Agent    `json:"agent"`
}
