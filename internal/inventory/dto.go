package inventory

import (
	"math"

	"github.com/duamedical/medserve/internal/shared"
)

// ItemRequest is the flat create/update payload. On update only the fields
// present in the payload change.
type ItemRequest struct {
	Category          *string        `json:"category"`
	SN                *shared.Number `json:"sN" validate:"omitempty,gte=0"`
	PN                *string        `json:"pN"`
	SerialNo          *string        `json:"serialNo"`
	BoxNo             *string        `json:"boxNo"`
	ModelNo           *string        `json:"modelNo"`
	ProductName       *string        `json:"productName"`
	PartName          *string        `json:"partName"`
	Probes            *string        `json:"probes"`
	ProType           *string        `json:"proType"`
	Description       *string        `json:"description"`
	Quantity          *shared.Number `json:"quantity" validate:"omitempty,gte=0"`
	Price             *shared.Number `json:"price" validate:"omitempty,gte=0"`
	CategoryName      *string        `json:"categoryName"`
	MachineCategory   *string        `json:"machineCategory"`
	Status            *string        `json:"status"`
	BuyerName         *string        `json:"buyerName"`
	BuyerSerial       *string        `json:"buyerSerial"`
	BuyerCity         *string        `json:"buyerCity"`
	LastSoldQuantity  *shared.Number `json:"lastSoldQuantity" validate:"omitempty,gte=0"`
	LastSoldUnitPrice *shared.Number `json:"lastSoldUnitPrice" validate:"omitempty,gte=0"`
	LastSoldTotal     *shared.Number `json:"lastSoldTotal" validate:"omitempty,gte=0"`
	LastSoldDate      *shared.Date   `json:"lastSoldDate"`
	LastSoldCustomer  *string        `json:"lastSoldCustomer"`
	IsSoldEntry       *bool          `json:"isSoldEntry"`
	Date              *shared.Date   `json:"date"`
}

func (req ItemRequest) apply(r *Record) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if req.Category != nil {
		r.Category = Category(*req.Category)
	}
	if req.SN != nil {
		r.SN = wholeNumber(*req.SN)
	}
	setString(&r.PN, req.PN)
	setString(&r.SerialNo, req.SerialNo)
	setString(&r.BoxNo, req.BoxNo)
	setString(&r.ModelNo, req.ModelNo)
	setString(&r.ProductName, req.ProductName)
	setString(&r.PartName, req.PartName)
	setString(&r.Probes, req.Probes)
	setString(&r.ProType, req.ProType)
	setString(&r.Description, req.Description)
	if req.Quantity != nil {
		r.Quantity = wholeNumber(*req.Quantity)
	}
	if req.Price != nil {
		r.Price = req.Price.Float()
	}
	setString(&r.CategoryName, req.CategoryName)
	if req.MachineCategory != nil {
		r.MachineCategory = MachineCategory(*req.MachineCategory)
	}
	if req.Status != nil {
		r.Status = ImportStatus(*req.Status)
	}
	setString(&r.BuyerName, req.BuyerName)
	setString(&r.BuyerSerial, req.BuyerSerial)
	setString(&r.BuyerCity, req.BuyerCity)
	if req.LastSoldQuantity != nil {
		q := wholeNumber(*req.LastSoldQuantity)
		r.LastSoldQuantity = &q
	}
	if req.LastSoldUnitPrice != nil {
		r.LastSoldUnitPrice = shared.FloatPtr(req.LastSoldUnitPrice)
	}
	if req.LastSoldTotal != nil {
		r.LastSoldTotal = shared.FloatPtr(req.LastSoldTotal)
	}
	if req.LastSoldDate != nil {
		if req.LastSoldDate.IsZero() {
			r.LastSoldDate = nil
		} else {
			t := req.LastSoldDate.Time
			r.LastSoldDate = &t
		}
	}
	setString(&r.LastSoldCustomer, req.LastSoldCustomer)
	if req.IsSoldEntry != nil {
		r.IsSoldEntry = *req.IsSoldEntry
	}
	if req.Date != nil && !req.Date.IsZero() {
		r.Date = req.Date.Time
	}
}

func wholeNumber(n shared.Number) int {
	return int(math.Round(n.Float()))
}
