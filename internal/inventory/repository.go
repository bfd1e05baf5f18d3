package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

var ErrNotFound = shared.NotFound("Inventory item")

// Repository provides persistence for inventory items.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	// List returns items newest first, restricted to category when set.
	List(ctx context.Context, category Category) ([]Item, error)
	Insert(ctx context.Context, it *Item) error
	Save(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MaxSN returns the greatest sN stored for category, 0 when empty.
	MaxSN(ctx context.Context, category Category) (int, error)
	LatestCode(ctx context.Context, prefix string) (string, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectItem = `
	SELECT id, category, s_n, p_n, serial_no, box_no, model_no, product_name, part_name,
	       probes, pro_type, description, quantity, price, category_name, machine_category,
	       status, buyer_name, buyer_serial, buyer_city, last_sold_quantity, last_sold_unit_price,
	       last_sold_total, last_sold_date, last_sold_customer, is_sold_entry, date,
	       created_at, updated_at
	FROM inventory_items`

func scanItem(row pgx.Row) (*Item, error) {
	var (
		id                   uuid.UUID
		r                    Record
		category             string
		machineCategory      string
		status               string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &category, &r.SN, &r.PN, &r.SerialNo, &r.BoxNo, &r.ModelNo, &r.ProductName,
		&r.PartName, &r.Probes, &r.ProType, &r.Description, &r.Quantity, &r.Price, &r.CategoryName,
		&machineCategory, &status, &r.BuyerName, &r.BuyerSerial, &r.BuyerCity, &r.LastSoldQuantity,
		&r.LastSoldUnitPrice, &r.LastSoldTotal, &r.LastSoldDate, &r.LastSoldCustomer, &r.IsSoldEntry,
		&r.Date, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Category = Category(category)
	r.MachineCategory = MachineCategory(machineCategory)
	r.Status = ImportStatus(status)
	it, err := FromRecord(id, r)
	if err != nil {
		return nil, fmt.Errorf("inventory item %s: %w", id, err)
	}
	it.CreatedAt, it.UpdatedAt = createdAt, updatedAt
	return &it, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, selectItem+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, db.Translate(err, "Inventory item")
}

func (r *repository) List(ctx context.Context, category Category) ([]Item, error) {
	rows, err := r.db.Query(ctx, selectItem+`
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC`, string(category))
	if err != nil {
		return nil, db.Translate(err, "Inventory item")
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, db.Translate(err, "Inventory item")
		}
		out = append(out, *it)
	}
	return out, db.Translate(rows.Err(), "Inventory item")
}

func (r *repository) Insert(ctx context.Context, it *Item) error {
	rec := it.Record()
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory_items (id, category, s_n, p_n, serial_no, box_no, model_no, product_name,
		    part_name, probes, pro_type, description, quantity, price, category_name, machine_category,
		    status, buyer_name, buyer_serial, buyer_city, last_sold_quantity, last_sold_unit_price,
		    last_sold_total, last_sold_date, last_sold_customer, is_sold_entry, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
		        $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`,
		it.ID, string(rec.Category), rec.SN, rec.PN, rec.SerialNo, rec.BoxNo, rec.ModelNo, rec.ProductName,
		rec.PartName, rec.Probes, rec.ProType, rec.Description, rec.Quantity, rec.Price, rec.CategoryName,
		string(rec.MachineCategory), string(rec.Status), rec.BuyerName, rec.BuyerSerial, rec.BuyerCity,
		rec.LastSoldQuantity, rec.LastSoldUnitPrice, rec.LastSoldTotal, rec.LastSoldDate,
		rec.LastSoldCustomer, rec.IsSoldEntry, rec.Date, it.CreatedAt, it.UpdatedAt)
	return db.Translate(err, "Inventory item")
}

func (r *repository) Save(ctx context.Context, it *Item) error {
	rec := it.Record()
	tag, err := r.db.Exec(ctx, `
		UPDATE inventory_items
		SET category = $2, s_n = $3, p_n = $4, serial_no = $5, box_no = $6, model_no = $7,
		    product_name = $8, part_name = $9, probes = $10, pro_type = $11, description = $12,
		    quantity = $13, price = $14, category_name = $15, machine_category = $16, status = $17,
		    buyer_name = $18, buyer_serial = $19, buyer_city = $20, last_sold_quantity = $21,
		    last_sold_unit_price = $22, last_sold_total = $23, last_sold_date = $24,
		    last_sold_customer = $25, is_sold_entry = $26, date = $27, updated_at = $28
		WHERE id = $1`,
		it.ID, string(rec.Category), rec.SN, rec.PN, rec.SerialNo, rec.BoxNo, rec.ModelNo, rec.ProductName,
		rec.PartName, rec.Probes, rec.ProType, rec.Description, rec.Quantity, rec.Price, rec.CategoryName,
		string(rec.MachineCategory), string(rec.Status), rec.BuyerName, rec.BuyerSerial, rec.BuyerCity,
		rec.LastSoldQuantity, rec.LastSoldUnitPrice, rec.LastSoldTotal, rec.LastSoldDate,
		rec.LastSoldCustomer, rec.IsSoldEntry, rec.Date, it.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Inventory item")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Inventory item")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MaxSN(ctx context.Context, category Category) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(s_n), 0) FROM inventory_items WHERE category = $1`, string(category)).Scan(&n)
	return n, db.Translate(err, "Inventory item")
}

// codeColumns maps each generated prefix to the column it is stored in.
var codeColumns = map[string]string{
	PrefixModel:   "model_no",
	PrefixPart:    "p_n",
	PrefixMachine: "serial_no",
	PrefixBox:     "box_no",
	PrefixImport:  "serial_no",
}

func (r *repository) LatestCode(ctx context.Context, prefix string) (string, error) {
	column, ok := codeColumns[prefix]
	if !ok {
		return "", fmt.Errorf("inventory: no code column for prefix %q", prefix)
	}
	return seqid.LatestCode(ctx, r.db, "inventory_items", column, prefix)
}
