package seed

import (
	"context"
	"errors"
	"fmt"

	catalogapp "github.com/boutique/backend/internal/application/catalog"
	identityapp "github.com/boutique/backend/internal/application/identity"
	inventoryapp "github.com/boutique/backend/internal/application/inventory"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogAdmin is the subset of the catalog admin service used by the seeder
type CatalogAdmin interface {
	ListAttributes(ctx context.Context) ([]catalogapp.AttributeDTO, error)
	CreateAttribute(ctx context.Context, session shared.Session, req catalogapp.CreateAttributeRequest) (*catalogapp.AttributeDTO, error)
	AddAttributeValue(ctx context.Context, session shared.Session, attributeID uuid.UUID, value string) (*catalogapp.AttributeDTO, error)
	CreateProduct(ctx context.Context, session shared.Session, req catalogapp.CreateProductRequest) (*catalogapp.ProductDetail, error)
	AddVariant(ctx context.Context, session shared.Session, productID uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error)
}

// StockAdmin is the subset of the inventory service used by the seeder
type StockAdmin interface {
	ListWarehouses(ctx context.Context, session shared.Session) ([]inventoryapp.WarehouseDTO, error)
	CreateWarehouse(ctx context.Context, session shared.Session, req inventoryapp.CreateWarehouseRequest) (*inventoryapp.WarehouseDTO, error)
	SetStock(ctx context.Context, session shared.Session, req inventoryapp.SetStockRequest) (*inventoryapp.VariantStockDTO, error)
}

// Accounts registers customers and fills their address books
type Accounts interface {
	Register(ctx context.Context, session shared.Session, req identityapp.RegisterRequest) (*identityapp.TokenResult, error)
}

// AddressBook creates address book entries
type AddressBook interface {
	Create(ctx context.Context, session shared.Session, req identityapp.AddressRequest) (*identityapp.AddressDTO, error)
}

// Seeder writes demo data through the application services
type Seeder struct {
	catalog   CatalogAdmin
	stock     StockAdmin
	users     identity.UserRepository
	accounts  Accounts
	addresses AddressBook
	logger    *zap.Logger
}

// Config wires a Seeder
type Config struct {
	Catalog   CatalogAdmin
	Stock     StockAdmin
	Users     identity.UserRepository
	Accounts  Accounts
	Addresses AddressBook
	Logger    *zap.Logger
}

// New creates a Seeder
func New(cfg Config) *Seeder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		catalog:   cfg.Catalog,
		stock:     cfg.Stock,
		users:     cfg.Users,
		accounts:  cfg.Accounts,
		addresses: cfg.Addresses,
		logger:    logger,
	}
}

// CatalogResult counts what a catalog run created
type CatalogResult struct {
	Warehouses int
	Attributes int
	Products   int
	Variants   int
}

// OperatorSession finds or creates the operator account and returns a
// staff session for it
func (s *Seeder) OperatorSession(ctx context.Context, op Operator) (shared.Session, error) {
	u, err := s.users.FindByEmail(ctx, op.Email)
	switch {
	case err == nil:
		if !u.IsStaff {
			return shared.Session{}, fmt.Errorf("user %s exists but is not an operator", op.Email)
		}
	case errors.Is(err, shared.ErrNotFound):
		u, err = identity.NewOperator(op.Email, op.Password, op.FirstName, op.LastName)
		if err != nil {
			return shared.Session{}, err
		}
		if err := s.users.Save(ctx, u); err != nil {
			return shared.Session{}, fmt.Errorf("saving operator: %w", err)
		}
		s.logger.Info("Operator created", zap.String("email", u.Email))
	default:
		return shared.Session{}, err
	}
	return shared.NewUserSession(u.ID, u.Email, true, ""), nil
}

// SeedCatalog creates warehouses, attributes, products, variants and stock.
// Existing warehouses (by code) and attributes (by name) are reused, so a
// catalog can be extended by running it again with new products.
func (s *Seeder) SeedCatalog(ctx context.Context, session shared.Session, c *Catalog) (*CatalogResult, error) {
	res := &CatalogResult{}

	warehouses, err := s.seedWarehouses(ctx, session, c.Warehouses, res)
	if err != nil {
		return res, err
	}
	values, err := s.seedAttributes(ctx, session, c.Attributes, res)
	if err != nil {
		return res, err
	}

	for _, p := range c.Products {
		attrIDs := make([]uuid.UUID, 0, len(p.Attributes))
		for _, name := range p.Attributes {
			attrIDs = append(attrIDs, values[name].id)
		}
		product, err := s.catalog.CreateProduct(ctx, session, catalogapp.CreateProductRequest{
			Name:         p.Name,
			Description:  p.Description,
			Category:     p.Category,
			Gender:       p.Gender,
			AttributeIDs: attrIDs,
		})
		if err != nil {
			return res, fmt.Errorf("creating product %q: %w", p.Name, err)
		}
		res.Products++

		for _, v := range p.Variants {
			valueIDs := make([]uuid.UUID, 0, len(v.Values))
			for _, name := range p.Attributes {
				valueIDs = append(valueIDs, values[name].values[v.Values[name]])
			}
			variant, err := s.catalog.AddVariant(ctx, session, product.ID, catalogapp.VariantRequest{
				SKU:       v.SKU,
				Price:     v.Price,
				SalePrice: v.SalePrice,
				ValueIDs:  valueIDs,
			})
			if err != nil {
				return res, fmt.Errorf("adding variant to %q: %w", p.Name, err)
			}
			res.Variants++

			for code, qty := range v.Stock {
				qty := qty
				if _, err := s.stock.SetStock(ctx, session, inventoryapp.SetStockRequest{
					WarehouseID: warehouses[code],
					VariantID:   variant.ID,
					Quantity:    &qty,
				}); err != nil {
					return res, fmt.Errorf("stocking %s in %s: %w", variant.SKU, code, err)
				}
			}
		}
		s.logger.Info("Product seeded",
			zap.String("product", p.Name),
			zap.Int("variants", len(p.Variants)))
	}
	return res, nil
}

func (s *Seeder) seedWarehouses(ctx context.Context, session shared.Session, defs []Warehouse, res *CatalogResult) (map[string]uuid.UUID, error) {
	existing, err := s.stock.ListWarehouses(ctx, session)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(existing)+len(defs))
	for _, w := range existing {
		ids[w.Code] = w.ID
	}
	for _, w := range defs {
		if _, ok := ids[w.Code]; ok {
			continue
		}
		created, err := s.stock.CreateWarehouse(ctx, session, inventoryapp.CreateWarehouseRequest{
			Code:    w.Code,
			Name:    w.Name,
			Address: w.Address,
		})
		if err != nil {
			return nil, fmt.Errorf("creating warehouse %s: %w", w.Code, err)
		}
		ids[w.Code] = created.ID
		res.Warehouses++
	}
	return ids, nil
}

type attributeIDs struct {
	id     uuid.UUID
	values map[string]uuid.UUID
}

func indexAttribute(a catalogapp.AttributeDTO) attributeIDs {
	idx := attributeIDs{id: a.ID, values: make(map[string]uuid.UUID, len(a.Values))}
	for _, v := range a.Values {
		idx.values[v.Value] = v.ID
	}
	return idx
}

func (s *Seeder) seedAttributes(ctx context.Context, session shared.Session, defs []Attribute, res *CatalogResult) (map[string]attributeIDs, error) {
	existing, err := s.catalog.ListAttributes(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]attributeIDs, len(defs))
	for _, a := range existing {
		out[a.Name] = indexAttribute(a)
	}

	for _, def := range defs {
		current, ok := out[def.Name]
		if !ok {
			created, err := s.catalog.CreateAttribute(ctx, session, catalogapp.CreateAttributeRequest{
				Name:   def.Name,
				Values: def.Values,
			})
			if err != nil {
				return nil, fmt.Errorf("creating attribute %s: %w", def.Name, err)
			}
			out[def.Name] = indexAttribute(*created)
			res.Attributes++
			continue
		}
		for _, v := range def.Values {
			if _, ok := current.values[v]; ok {
				continue
			}
			updated, err := s.catalog.AddAttributeValue(ctx, session, current.id, v)
			if err != nil {
				return nil, fmt.Errorf("adding %s=%s: %w", def.Name, v, err)
			}
			current = indexAttribute(*updated)
		}
		out[def.Name] = current
	}
	return out, nil
}
