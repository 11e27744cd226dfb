package persistence

import (
	"context"
	"strings"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM.
// A product is stored across products, product_attributes, variants,
// variant_values and product_images and always loaded whole.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return r.findOne(ctx, "slug = ?", strings.ToLower(strings.TrimSpace(slug)))
}

func (r *GormProductRepository) findOne(ctx context.Context, cond string, arg any) (*catalog.Product, error) {
	db := r.db.WithContext(ctx)
	var row models.ProductModel
	if err := db.Where(cond, arg).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	products, err := r.hydrate(db, []models.ProductModel{row})
	if err != nil {
		return nil, err
	}
	return &products[0], nil
}

// FindAll lists products. Filters: "active" (bool), "gender", "category".
// Search matches the product name.
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.ProductModel{})
	if active, ok := filterBool(filter, "active"); ok {
		query = query.Where("is_active = ?", active)
	}
	if gender, ok := filterString(filter, "gender"); ok {
		query = query.Where("gender = ?", strings.ToUpper(gender))
	}
	if category, ok := filterString(filter, "category"); ok {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if filter.Search != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ProductModel
	if err := paginate(query, "products", filter, productSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products, err := r.hydrate(db, rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// variantRow is a variant joined with its product's name and status
type variantRow struct {
	models.VariantModel
	ProductName   string
	ProductActive bool
}

// FindVariant finds a single variant with its values and stock_total
func (r *GormProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	variants, err := r.FindVariants(ctx, []uuid.UUID{variantID})
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, shared.ErrNotFound
	}
	return &variants[0], nil
}

// FindVariants loads several variants at once. Unknown IDs are skipped.
func (r *GormProductRepository) FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]catalog.Variant, error) {
	if len(variantIDs) == 0 {
		return []catalog.Variant{}, nil
	}
	db := r.db.WithContext(ctx)
	var rows []variantRow
	if err := db.Table("variants").
		Select("variants.*, products.name AS product_name, products.is_active AS product_active").
		Joins("JOIN products ON products.id = variants.product_id").
		Where("variants.id IN ?", variantIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	values, err := loadVariantValues(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Variant, len(rows))
	for i := range rows {
		v := rows[i].ToDomain()
		v.ProductName = rows[i].ProductName
		v.ProductActive = rows[i].ProductActive
		if vals, ok := values[v.ID]; ok {
			v.Values = vals
		}
		out[i] = v
	}
	return out, nil
}

// Save creates or updates the product with its variants and images.
// stock_total is left to the inventory side.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.ProductModelFromDomain(product)).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductAttributeModel{}).Error; err != nil {
			return err
		}
		if len(product.Attributes) > 0 {
			links := make([]models.ProductAttributeModel, len(product.Attributes))
			for i, a := range product.Attributes {
				links[i] = models.ProductAttributeModel{ProductID: product.ID, AttributeID: a.ID, Position: i}
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		for i := range product.Variants {
			if err := saveVariant(tx, &product.Variants[i]); err != nil {
				return err
			}
		}
		return saveImages(tx, product)
	})
}

func saveVariant(tx *gorm.DB, v *catalog.Variant) error {
	vm := models.VariantModelFromDomain(v)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sku", "price", "sale_price", "is_active", "updated_at"}),
	}).Create(vm).Error; err != nil {
		return err
	}

	if err := tx.Where("variant_id = ?", v.ID).Delete(&models.VariantValueModel{}).Error; err != nil {
		return err
	}
	if len(v.Values) == 0 {
		return nil
	}
	links := make([]models.VariantValueModel, len(v.Values))
	for i, av := range v.Values {
		links[i] = models.VariantValueModel{VariantID: v.ID, AttributeValueID: av.ID}
	}
	return tx.Create(&links).Error
}

func saveImages(tx *gorm.DB, product *catalog.Product) error {
	keep := make([]uuid.UUID, len(product.Images))
	for i := range product.Images {
		keep[i] = product.Images[i].ID
	}
	del := tx.Where("product_id = ?", product.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&models.ProductImageModel{}).Error; err != nil {
		return err
	}
	for i := range product.Images {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(models.ProductImageModelFromDomain(&product.Images[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// ExistsBySlug checks slug uniqueness, excluding the given product
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}

// ExistsBySKU checks SKU uniqueness across all products
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeVariantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VariantModel{}).
		Where("sku = ? AND id <> ?", strings.ToUpper(sku), excludeVariantID).
		Count(&count).Error
	return count > 0, err
}

// hydrate loads the attribute set, variants and gallery of the given rows,
// batching each child table into one query.
func (r *GormProductRepository) hydrate(db *gorm.DB, rows []models.ProductModel) ([]catalog.Product, error) {
	products := make([]catalog.Product, len(rows))
	if len(rows) == 0 {
		return products, nil
	}
	ids := make([]uuid.UUID, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
		ids[i] = rows[i].ID
		index[rows[i].ID] = i
	}

	var links []models.ProductAttributeModel
	if err := db.Where("product_id IN ?", ids).Order("position").Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) > 0 {
		attrIDs := make([]uuid.UUID, 0, len(links))
		for _, l := range links {
			attrIDs = append(attrIDs, l.AttributeID)
		}
		var attrs []models.AttributeModel
		if err := db.Preload("Values").Where("id IN ?", attrIDs).Find(&attrs).Error; err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*models.AttributeModel, len(attrs))
		for i := range attrs {
			byID[attrs[i].ID] = &attrs[i]
		}
		for _, l := range links {
			if a, ok := byID[l.AttributeID]; ok {
				p := &products[index[l.ProductID]]
				p.Attributes = append(p.Attributes, *a.ToDomain())
			}
		}
	}

	var variants []models.VariantModel
	if err := db.Where("product_id IN ?", ids).Order("created_at, sku").Find(&variants).Error; err != nil {
		return nil, err
	}
	variantIDs := make([]uuid.UUID, len(variants))
	for i := range variants {
		variantIDs[i] = variants[i].ID
	}
	values, err := loadVariantValues(db, variantIDs)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		p := &products[index[variants[i].ProductID]]
		v := variants[i].ToDomain()
		v.ProductName = p.Name
		v.ProductActive = p.IsActive
		if vals, ok := values[v.ID]; ok {
			v.Values = vals
		}
		p.Variants = append(p.Variants, v)
	}

	var images []models.ProductImageModel
	if err := db.Where("product_id IN ?", ids).Order("position").Find(&images).Error; err != nil {
		return nil, err
	}
	for i := range images {
		p := &products[index[images[i].ProductID]]
		p.Images = append(p.Images, images[i].ToDomain())
	}
	return products, nil
}

type variantValueRow struct {
	VariantID     uuid.UUID
	ID            uuid.UUID
	AttributeID   uuid.UUID
	AttributeName string
	Value         string
}

// loadVariantValues returns each variant's values in the product's
// attribute order
func loadVariantValues(db *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID][]catalog.AttributeValue, error) {
	out := make(map[uuid.UUID][]catalog.AttributeValue, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var rows []variantValueRow
	if err := db.Table("variant_values AS vv").
		Select("vv.variant_id, av.id, av.attribute_id, a.name AS attribute_name, av.value").
		Joins("JOIN attribute_values av ON av.id = vv.attribute_value_id").
		Joins("JOIN attributes a ON a.id = av.attribute_id").
		Joins("JOIN variants v ON v.id = vv.variant_id").
		Joins("LEFT JOIN product_attributes pa ON pa.product_id = v.product_id AND pa.attribute_id = a.id").
		Where("vv.variant_id IN ?", variantIDs).
		Order("pa.position, a.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VariantID] = append(out[row.VariantID], catalog.AttributeValue{
			ID:            row.ID,
			AttributeID:   row.AttributeID,
			AttributeName: row.AttributeName,
			Value:         row.Value,
		})
	}
	return out, nil
}

// GormAttributeRepository implements catalog.AttributeRepository using GORM
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewGormAttributeRepository creates a new GormAttributeRepository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// FindByID finds an attribute with its values
func (r *GormAttributeRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Attribute, error) {
	var m models.AttributeModel
	if err := r.db.WithContext(ctx).Preload("Values").First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByName matches the attribute name case-insensitively
func (r *GormAttributeRepository) FindByName(ctx context.Context, name string) (*catalog.Attribute, error) {
	var m models.AttributeModel
	if err := r.db.WithContext(ctx).Preload("Values").
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns every attribute ordered by name
func (r *GormAttributeRepository) FindAll(ctx context.Context) ([]catalog.Attribute, error) {
	var rows []models.AttributeModel
	if err := r.db.WithContext(ctx).Preload("Values").Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return attributesToDomain(rows), nil
}

// FindByIDs loads several attributes at once
func (r *GormAttributeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Attribute, error) {
	if len(ids) == 0 {
		return []catalog.Attribute{}, nil
	}
	var rows []models.AttributeModel
	if err := r.db.WithContext(ctx).Preload("Values").Where("id IN ?", ids).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return attributesToDomain(rows), nil
}

// FindValues loads attribute values with their attribute names
func (r *GormAttributeRepository) FindValues(ctx context.Context, valueIDs []uuid.UUID) ([]catalog.AttributeValue, error) {
	if len(valueIDs) == 0 {
		return []catalog.AttributeValue{}, nil
	}
	var rows []variantValueRow
	if err := r.db.WithContext(ctx).Table("attribute_values AS av").
		Select("av.id, av.attribute_id, a.name AS attribute_name, av.value").
		Joins("JOIN attributes a ON a.id = av.attribute_id").
		Where("av.id IN ?", valueIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.AttributeValue, len(rows))
	for i, row := range rows {
		out[i] = catalog.AttributeValue{
			ID:            row.ID,
			AttributeID:   row.AttributeID,
			AttributeName: row.AttributeName,
			Value:         row.Value,
		}
	}
	return out, nil
}

// Save creates or updates an attribute and inserts new values
func (r *GormAttributeRepository) Save(ctx context.Context, attr *catalog.Attribute) error {
	m := models.AttributeModelFromDomain(attr)
	values := m.Values
	m.Values = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&values).Error
	})
}

func attributesToDomain(rows []models.AttributeModel) []catalog.Attribute {
	out := make([]catalog.Attribute, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var (
	_ catalog.ProductRepository   = (*GormProductRepository)(nil)
	_ catalog.AttributeRepository = (*GormAttributeRepository)(nil)
)
