package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

type document interface {
	PrimaryKey() uuid.UUID
}

type collectionSchema struct {
	newDoc  func() document
	findAll func(q *gorm.DB) ([]document, error)
	// field name -> column; only listed fields can be filtered or sorted on
	columns map[string]string
	arrays  map[string]bool
}

var schemas = map[models.Collection]collectionSchema{
	models.CollectionUsers: {
		newDoc:  func() document { return &models.User{} },
		findAll: findAll[models.User],
		columns: map[string]string{
			"id":            "id",
			"email":         "email",
			"role":          "role",
			"products":      "products",
			"product_files": "product_files",
			"createdAt":     "created_at",
			"updatedAt":     "updated_at",

			"_verified":          "verified",
			"_verificationToken": "verification_token",
		},
		arrays: map[string]bool{"products": true, "product_files": true},
	},
	models.CollectionProducts: {
		newDoc:  func() document { return &models.Product{} },
		findAll: findAll[models.Product],
		columns: map[string]string{
			"id":              "id",
			"user":            "user_id",
			"name":            "name",
			"price":           "price",
			"category":        "category",
			"product_files":   "product_files_id",
			"approvedForSale": "approved_for_sale",
			"stripeId":        "stripe_id",
			"priceId":         "price_id",
			"createdAt":       "created_at",
			"updatedAt":       "updated_at",
		},
	},
	models.CollectionOrders: {
		newDoc:  func() document { return &models.Order{} },
		findAll: findAll[models.Order],
		columns: map[string]string{
			"id":        "id",
			"user":      "user_id",
			"_isPaid":   "is_paid",
			"products":  "products",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
		arrays: map[string]bool{"products": true},
	},
	models.CollectionProductFiles: {
		newDoc:  func() document { return &models.ProductFile{} },
		findAll: findAll[models.ProductFile],
		columns: map[string]string{
			"id":        "id",
			"user":      "user_id",
			"filename":  "filename",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
	},
}

func findAll[T any, PT interface {
	*T
	document
}](q *gorm.DB) ([]document, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(rows))
	for i := range rows {
		docs = append(docs, PT(&rows[i]))
	}
	return docs, nil
}

// GormStore persists each collection in its own table through the typed
// models, converting to and from field maps at the boundary.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) schema(collection models.Collection) (collectionSchema, error) {
	sch, ok := schemas[collection]
	if !ok {
		return collectionSchema{}, fmt.Errorf("unknown collection %q: %w", collection, ErrInvalidQuery)
	}
	return sch, nil
}

func (s *GormStore) Find(ctx context.Context, collection models.Collection, filter Filter, opts FindOptions) ([]Record, int64, error) {
	sch, err := s.schema(collection)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(sch.newDoc())
	query, err = applyFilter(query, sch, filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	sortColumn := "created_at"
	if opts.Sort != "" {
		col, ok := sch.columns[opts.Sort]
		if !ok || sch.arrays[opts.Sort] {
			return nil, 0, fmt.Errorf("cannot sort %s by %q: %w", collection, opts.Sort, ErrInvalidQuery)
		}
		sortColumn = col
	}
	order := "asc"
	if opts.Desc {
		order = "desc"
	}
	query = query.Order(sortColumn + " " + order)
	if opts.Limit > 0 {
		query = query.Offset(opts.offset()).Limit(opts.Limit)
	}

	docs, err := sch.findAll(query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := toRecord(collection, doc)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, nil
}

func (s *GormStore) FindByID(ctx context.Context, collection models.Collection, id string) (Record, error) {
	sch, err := s.schema(collection)
	if err != nil {
		return Record{}, err
	}
	doc, err := s.load(ctx, sch, collection, id)
	if err != nil {
		return Record{}, err
	}
	return toRecord(collection, doc)
}

func (s *GormStore) Create(ctx context.Context, collection models.Collection, data models.JSONB) (Record, error) {
	sch, err := s.schema(collection)
	if err != nil {
		return Record{}, err
	}

	doc := sch.newDoc()
	if err := decode(withoutSystemFields(data), doc); err != nil {
		return Record{}, err
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return Record{}, translate(fmt.Errorf("failed to create %s: %w", collection, err))
	}
	return toRecord(collection, doc)
}

func (s *GormStore) Update(ctx context.Context, collection models.Collection, id string, data models.JSONB) (Record, error) {
	sch, err := s.schema(collection)
	if err != nil {
		return Record{}, err
	}

	doc, err := s.load(ctx, sch, collection, id)
	if err != nil {
		return Record{}, err
	}
	if err := decode(withoutSystemFields(data), doc); err != nil {
		return Record{}, err
	}

	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return Record{}, translate(fmt.Errorf("failed to update %s %s: %w", collection, id, err))
	}
	return toRecord(collection, doc)
}

func (s *GormStore) Delete(ctx context.Context, collection models.Collection, id string) error {
	sch, err := s.schema(collection)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}

	result := s.db.WithContext(ctx).Delete(sch.newDoc(), "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *GormStore) load(ctx context.Context, sch collectionSchema, collection models.Collection, id string) (document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	doc := sch.newDoc()
	if err := s.db.WithContext(ctx).First(doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return doc, nil
}

func applyFilter(query *gorm.DB, sch collectionSchema, filter Filter) (*gorm.DB, error) {
	for _, c := range filter {
		col, ok := sch.columns[c.Field]
		if !ok {
			return nil, fmt.Errorf("field %q is not queryable: %w", c.Field, ErrInvalidQuery)
		}
		switch c.Operator {
		case Equals:
			if sch.arrays[c.Field] {
				query = query.Where("? = ANY("+col+")", scalarKey(c.Value))
			} else {
				query = query.Where(col+" = ?", c.Value)
			}
		case In:
			values := stringValues(c.Value)
			switch {
			case len(values) == 0:
				query = query.Where("1 = 0")
			case sch.arrays[c.Field]:
				query = query.Where(col+" && ?", pq.StringArray(values))
			default:
				query = query.Where(col+" IN ?", values)
			}
		default:
			return nil, fmt.Errorf("unsupported operator %q: %w", c.Operator, ErrInvalidQuery)
		}
	}
	return query, nil
}

func decode(data models.JSONB, doc document) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func toRecord(collection models.Collection, doc document) (Record, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	var fields models.JSONB
	if err := json.Unmarshal(b, &fields); err != nil {
		return Record{}, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return Record{ID: doc.PrimaryKey().String(), Collection: collection, Fields: fields}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	return err
}
