package delivery

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// CHALLAN STATUS
// ============================================================================

// Status represents the lifecycle of a delivery challan.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusInTransit Status = "In Transit"
	StatusDelivered Status = "Delivered"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered:
		return true
	default:
		return false
	}
}

// CodePrefix is the sequential code prefix for manually created challans.
const CodePrefix = "DC"

// ============================================================================
// CHALLAN ENTITY
// ============================================================================

// Item is one delivered product row.
type Item struct {
	ID             string  `json:"id"`
	ProductName    string  `json:"productName"`
	Description    string  `json:"description"`
	BuyDescription string  `json:"buyDescription"`
	Quantity       float64 `json:"quantity" validate:"gte=0"`
	UnitPrice      float64 `json:"unitPrice" validate:"gte=0"`
	Total          float64 `json:"total" validate:"gte=0"`
	BuyPrice       float64 `json:"buyPrice" validate:"gte=0"`
	SellPrice      float64 `json:"sellPrice" validate:"gte=0"`
}

// Challan is a delivery note, either entered directly or generated from an
// accepted quotation.
type Challan struct {
	ID                uuid.UUID  `json:"id"`
	ChallanNo         string     `json:"challanNo"`
	ReferenceNo       string     `json:"referenceNo"`
	SourceQuotationID *uuid.UUID `json:"sourceQuotationId,omitempty"`
	Date              time.Time  `json:"date"`
	Customer          string     `json:"customer"`
	CustomerID        *uuid.UUID `json:"customerId,omitempty"`
	Address           string     `json:"address"`
	Items             []Item     `json:"items"`
	Status            Status     `json:"status"`
	VehicleNo         string     `json:"vehicleNo"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ============================================================================
// RESPONSE SHAPES
// ============================================================================

// View is the response shape: the frontend reads items as a count, so the
// rows travel under lineItems.
type View struct {
	Challan
	Items     int    `json:"items"`
	LineItems []Item `json:"lineItems"`
}

// NewView projects c into its response shape.
func NewView(c Challan) View {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return View{Challan: c, Items: len(items), LineItems: items}
}

// Views projects a list.
func Views(list []Challan) []View {
	out := make([]View, 0, len(list))
	for _, c := range list {
		out = append(out, NewView(c))
	}
	return out
}

// Stats counts challans per status.
type Stats struct {
	TotalChallans int `json:"totalChallans"`
	Delivered     int `json:"delivered"`
	InTransit     int `json:"inTransit"`
	Pending       int `json:"pending"`
}

// ListResult is returned by the list endpoint when stats are requested.
type ListResult struct {
	DeliveryChallans []View `json:"deliveryChallans"`
	Stats            Stats  `json:"deliveryChallanStats"`
}

// ComputeStats counts challans by status.
func ComputeStats(list []Challan) Stats {
	stats := Stats{TotalChallans: len(list)}
	for _, c := range list {
		switch c.Status {
		case StatusDelivered:
			stats.Delivered++
		case StatusInTransit:
			stats.InTransit++
		case StatusPending:
			stats.Pending++
		}
	}
	return stats
}
