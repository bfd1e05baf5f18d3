package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/shared"
)

// Category discriminates the kinds of stock kept in the unified inventory.
type Category string

const (
	CategoryMachines    Category = "machines"
	CategoryProbes      Category = "probs"
	CategoryParts       Category = "parts"
	CategoryProducts    Category = "productsCategory"
	CategoryImportStock Category = "importStock"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMachines, CategoryProbes, CategoryParts, CategoryProducts, CategoryImportStock:
		return true
	}
	return false
}

// MachineCategory is the stock state of a machine.
type MachineCategory string

const (
	MachineInStock MachineCategory = "instock"
	MachineRepair  MachineCategory = "repair"
	MachineSold    MachineCategory = "sold"
)

// ImportStatus is the stock state of an imported item.
type ImportStatus string

const (
	ImportInStock ImportStatus = "InStock"
	ImportRepair  ImportStatus = "Repair"
	ImportSold    ImportStatus = "Sold"
)

// Code prefixes for generated inventory identifiers.
const (
	PrefixModel   = "MOD"
	PrefixPart    = "PN"
	PrefixMachine = "MCH"
	PrefixBox     = "BX"
	PrefixImport  = "IMP"
)

// NormalizeMachineCategory lower-cases and validates a machine category.
// Blank stays blank and reads as in stock.
func NormalizeMachineCategory(s string) (MachineCategory, error) {
	mc := MachineCategory(strings.ToLower(strings.TrimSpace(s)))
	switch mc {
	case "", MachineInStock, MachineRepair, MachineSold:
		return mc, nil
	}
	return "", shared.NewValidationError("machineCategory", "must be one of: instock repair sold")
}

// NormalizeImportStatus maps the accepted spellings, including the legacy
// "Repair Items", onto InStock, Repair or Sold.
func NormalizeImportStatus(s string) (ImportStatus, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "":
		return "", nil
	case "instock":
		return ImportInStock, nil
	case "repair", "repairitems":
		return ImportRepair, nil
	case "sold":
		return ImportSold, nil
	}
	return "", shared.NewValidationError("status", "must be one of: InStock Repair Sold")
}

// ============================================================================
// VARIANTS
// ============================================================================

// Details holds the fields that only apply to one category.
type Details interface {
	Category() Category
	flatten(r *Record)
}

type Machine struct {
	ModelNo         string
	SerialNo        string
	ProductName     string
	MachineCategory MachineCategory
}

func (Machine) Category() Category { return CategoryMachines }

func (d Machine) flatten(r *Record) {
	r.ModelNo, r.SerialNo, r.ProductName = d.ModelNo, d.SerialNo, d.ProductName
	r.MachineCategory = d.MachineCategory
}

type Probe struct {
	BoxNo       string
	ModelNo     string
	ProductName string
	Probes      string
	ProType     string
}

func (Probe) Category() Category { return CategoryProbes }

func (d Probe) flatten(r *Record) {
	r.BoxNo, r.ModelNo, r.ProductName = d.BoxNo, d.ModelNo, d.ProductName
	r.Probes, r.ProType = d.Probes, d.ProType
}

type Part struct {
	ModelNo     string
	PartName    string
	ProductName string
}

func (Part) Category() Category { return CategoryParts }

func (d Part) flatten(r *Record) {
	r.ModelNo, r.PartName, r.ProductName = d.ModelNo, d.PartName, d.ProductName
}

type Product struct {
	PN           string
	SerialNo     string
	ModelNo      string
	ProductName  string
	CategoryName string
}

func (Product) Category() Category { return CategoryProducts }

func (d Product) flatten(r *Record) {
	r.PN, r.SerialNo, r.ModelNo, r.ProductName = d.PN, d.SerialNo, d.ModelNo, d.ProductName
	r.CategoryName = d.CategoryName
}

type ImportStock struct {
	SerialNo     string
	ModelNo      string
	ProductName  string
	CategoryName string
	Status       ImportStatus
}

func (ImportStock) Category() Category { return CategoryImportStock }

func (d ImportStock) flatten(r *Record) {
	r.SerialNo, r.ModelNo, r.ProductName = d.SerialNo, d.ModelNo, d.ProductName
	r.CategoryName, r.Status = d.CategoryName, d.Status
}

// Buyer identifies who a sold item went to.
type Buyer struct {
	Name   string
	Serial string
	City   string
}

// Sale is the metadata of the last sale of an item. Entry marks a record
// that exists only to register a sale of other stock.
type Sale struct {
	Entry     bool
	Quantity  *int
	UnitPrice *float64
	Total     *float64
	Date      *time.Time
	Customer  string
}

func (s *Sale) empty() bool {
	return s == nil || (!s.Entry && s.Quantity == nil && s.UnitPrice == nil && s.Total == nil && s.Date == nil && s.Customer == "")
}

// Item is one inventory record.
type Item struct {
	ID          uuid.UUID
	SN          int
	Description string
	Quantity    int
	Price       float64
	Date        time.Time
	Details     Details
	Buyer       Buyer
	Sale        *Sale
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category returns the stored category of the item.
func (it Item) Category() Category {
	if it.Details == nil {
		return ""
	}
	return it.Details.Category()
}

// Sold reports whether the item is out of stock because it was sold. All
// known markers count: sold entries, sold machines, sold imports, and
// products with nothing left and a named buyer.
func (it Item) Sold() bool {
	if it.Sale != nil && it.Sale.Entry {
		return true
	}
	switch d := it.Details.(type) {
	case Machine:
		return d.MachineCategory == MachineSold
	case ImportStock:
		return d.Status == ImportSold
	case Product:
		return it.Quantity == 0 && strings.TrimSpace(it.Buyer.Name) != ""
	}
	return false
}

// DisplayCategory is the category reported to callers: a machine shows its
// stock state, an import shows its custom category name.
func DisplayCategory(it Item) string {
	switch d := it.Details.(type) {
	case Machine:
		if d.MachineCategory == "" {
			return string(MachineInStock)
		}
		return string(d.MachineCategory)
	case ImportStock:
		if d.CategoryName != "" {
			return d.CategoryName
		}
	}
	return string(it.Category())
}

// ============================================================================
// FLAT SHAPE
// ============================================================================

// Record is the flat field set shared by storage and the legacy JSON shape.
type Record struct {
	Category          Category        `json:"category"`
	SN                int             `json:"sN"`
	PN                string          `json:"pN"`
	SerialNo          string          `json:"serialNo"`
	BoxNo             string          `json:"boxNo"`
	ModelNo           string          `json:"modelNo"`
	ProductName       string          `json:"productName"`
	PartName          string          `json:"partName"`
	Probes            string          `json:"probes"`
	ProType           string          `json:"proType"`
	Description       string          `json:"description"`
	Quantity          int             `json:"quantity"`
	Price             float64         `json:"price"`
	CategoryName      string          `json:"categoryName"`
	MachineCategory   MachineCategory `json:"machineCategory,omitempty"`
	Status            ImportStatus    `json:"status,omitempty"`
	BuyerName         string          `json:"buyerName"`
	BuyerSerial       string          `json:"buyerSerial"`
	BuyerCity         string          `json:"buyerCity"`
	LastSoldQuantity  *int            `json:"lastSoldQuantity,omitempty"`
	LastSoldUnitPrice *float64        `json:"lastSoldUnitPrice,omitempty"`
	LastSoldTotal     *float64        `json:"lastSoldTotal,omitempty"`
	LastSoldDate      *time.Time      `json:"lastSoldDate,omitempty"`
	LastSoldCustomer  string          `json:"lastSoldCustomer"`
	IsSoldEntry       bool            `json:"isSoldEntry"`
	Date              time.Time       `json:"date"`
}

// Record flattens the item. Fields of other categories come out blank.
func (it Item) Record() Record {
	r := Record{
		Category:    it.Category(),
		SN:          it.SN,
		Description: it.Description,
		Quantity:    it.Quantity,
		Price:       it.Price,
		BuyerName:   it.Buyer.Name,
		BuyerSerial: it.Buyer.Serial,
		BuyerCity:   it.Buyer.City,
		Date:        it.Date,
	}
	if it.Details != nil {
		it.Details.flatten(&r)
	}
	if it.Sale != nil {
		r.IsSoldEntry = it.Sale.Entry
		r.LastSoldQuantity = it.Sale.Quantity
		r.LastSoldUnitPrice = it.Sale.UnitPrice
		r.LastSoldTotal = it.Sale.Total
		r.LastSoldDate = it.Sale.Date
		r.LastSoldCustomer = it.Sale.Customer
	}
	return r
}

// FromRecord builds the variant for r.Category, keeping only the fields that
// category carries.
func FromRecord(id uuid.UUID, r Record) (Item, error) {
	it := Item{
		ID:          id,
		SN:          r.SN,
		Description: strings.TrimSpace(r.Description),
		Quantity:    r.Quantity,
		Price:       r.Price,
		Date:        r.Date,
		Buyer: Buyer{
			Name:   strings.TrimSpace(r.BuyerName),
			Serial: strings.TrimSpace(r.BuyerSerial),
			City:   strings.TrimSpace(r.BuyerCity),
		},
	}
	if it.Quantity < 0 {
		return Item{}, shared.NewValidationError("quantity", "must be greater than or equal to 0")
	}
	if it.Price < 0 {
		return Item{}, shared.NewValidationError("price", "must be greater than or equal to 0")
	}

	trim := strings.TrimSpace
	switch r.Category {
	case CategoryMachines:
		mc, err := NormalizeMachineCategory(string(r.MachineCategory))
		if err != nil {
			return Item{}, err
		}
		it.Details = Machine{ModelNo: trim(r.ModelNo), SerialNo: trim(r.SerialNo), ProductName: trim(r.ProductName), MachineCategory: mc}
	case CategoryProbes:
		it.Details = Probe{BoxNo: trim(r.BoxNo), ModelNo: trim(r.ModelNo), ProductName: trim(r.ProductName), Probes: trim(r.Probes), ProType: trim(r.ProType)}
	case CategoryParts:
		it.Details = Part{ModelNo: trim(r.ModelNo), PartName: trim(r.PartName), ProductName: trim(r.ProductName)}
	case CategoryProducts:
		it.Details = Product{PN: trim(r.PN), SerialNo: trim(r.SerialNo), ModelNo: trim(r.ModelNo), ProductName: trim(r.ProductName), CategoryName: trim(r.CategoryName)}
	case CategoryImportStock:
		status, err := NormalizeImportStatus(string(r.Status))
		if err != nil {
			return Item{}, err
		}
		it.Details = ImportStock{SerialNo: trim(r.SerialNo), ModelNo: trim(r.ModelNo), ProductName: trim(r.ProductName), CategoryName: trim(r.CategoryName), Status: status}
	default:
		return Item{}, shared.NewValidationError("category", "must be one of: machines probs parts productsCategory importStock")
	}

	sale := &Sale{
		Entry:     r.IsSoldEntry,
		Quantity:  r.LastSoldQuantity,
		UnitPrice: r.LastSoldUnitPrice,
		Total:     r.LastSoldTotal,
		Date:      r.LastSoldDate,
		Customer:  trim(r.LastSoldCustomer),
	}
	if !sale.empty() {
		it.Sale = sale
	}
	return it, nil
}

// ============================================================================
// RESPONSE SHAPES
// ============================================================================

// Display is the legacy flat response: the stored category moves to
// itemType and category carries the projected value.
type Display struct {
	Record
	ID        uuid.UUID `json:"id"`
	ItemType  Category  `json:"itemType"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDisplay projects it onto the flat response shape.
func NewDisplay(it Item) Display {
	return Display{
		Record:    it.Record(),
		ID:        it.ID,
		ItemType:  it.Category(),
		Category:  DisplayCategory(it),
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// Displays projects a list.
func Displays(items []Item) []Display {
	out := make([]Display, 0, len(items))
	for _, it := range items {
		out = append(out, NewDisplay(it))
	}
	return out
}

// Stats summarise the inventory. Sold items never count as stock.
type Stats struct {
	TotalStockValue      float64 `json:"totalStockValue"`
	ItemsInStockMachines int     `json:"itemsInStockMachines"`
	StockInProbes        int     `json:"stockInProbes"`
	StockInParts         int     `json:"stockInParts"`
	ItemsSold            int     `json:"itemsSold"`
}

type ListResult struct {
	Items []Display `json:"items"`
	Stats Stats     `json:"stats"`
}
