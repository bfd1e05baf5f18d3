package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/shared"
)

// ItemsInput accepts either an item array or a bare count N, which expands
// to N placeholder rows "Item 1".."Item N" of quantity 1.
type ItemsInput []Item

// UnmarshalJSON implements json.Unmarshaler.
func (in *ItemsInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*in = items
		return nil
	}
	*in = PlaceholderItems(parseCount(data))
	return nil
}

// parseCount reads a JSON number or string leniently. Anything unparseable
// counts as zero.
func parseCount(data []byte) int {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return int(math.Trunc(v))
	case string:
		s := strings.TrimSpace(v)
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// PlaceholderItems builds n generic rows.
func PlaceholderItems(n int) []Item {
	if n <= 0 {
		return []Item{}
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ProductName: fmt.Sprintf("Item %d", i+1), Quantity: 1}
	}
	return items
}

// ChallanRequest is used for both create and update. On update only the
// fields present in the payload change.
type ChallanRequest struct {
	ReferenceNo       *string      `json:"referenceNo"`
	SourceQuotationID *uuid.UUID   `json:"sourceQuotationId"`
	Date              *shared.Date `json:"date"`
	Customer          *string      `json:"customer"`
	CustomerID        *uuid.UUID   `json:"customerId"`
	Address           *string      `json:"address"`
	Items             *ItemsInput  `json:"items" validate:"omitempty,dive"`
	Status            *string      `json:"status" validate:"omitempty,oneof=Pending 'In Transit' Delivered"`
	VehicleNo         *string      `json:"vehicleNo"`
}
