package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

type CustomerCollection struct {
	*Collection[*domain.Customer]
}

func (c CustomerCollection) FindByPhone(ctx context.Context, vendorID, phone string) (*domain.Customer, error) {
	var cu domain.Customer
	err := c.coll.FindOne(ctx, bson.M{"vendor_id": vendorID, "phone": phone}).Decode(&cu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer by phone: %w", err)
	}
	return &cu, nil
}

// Catalog holds the vendor-owned document collections.
type Catalog struct {
	Vendors        *Collection[*domain.Vendor]
	Customers      CustomerCollection
	MenuItems      *Collection[*domain.MenuItem]
	PaymentMethods *Collection[*domain.ManualPaymentMethod]
	Loyalty        *Collection[*domain.LoyaltySettings]
}

func NewCatalog(db *mongo.Database) *Catalog {
	loyalty := newCollection(db, "loyalty_settings", true, func(l *domain.LoyaltySettings) repository.Key {
		return repository.Key{VendorID: l.VendorID, ID: l.VendorID}
	})
	loyalty.sort = bson.D{{Key: "_id", Value: 1}}

	return &Catalog{
		Vendors: newCollection(db, "vendors", false, func(v *domain.Vendor) repository.Key {
			return repository.Key{ID: v.ID}
		}),
		Customers: CustomerCollection{newCollection(db, "customers", true, func(c *domain.Customer) repository.Key {
			return repository.Key{VendorID: c.VendorID, ID: c.ID}
		})},
		MenuItems: newCollection(db, "menu_items", true, func(m *domain.MenuItem) repository.Key {
			return repository.Key{VendorID: m.VendorID, ID: m.ID}
		}),
		PaymentMethods: newCollection(db, "manual_payment_methods", true, func(m *domain.ManualPaymentMethod) repository.Key {
			return repository.Key{VendorID: m.VendorID, ID: m.ID}
		}),
		Loyalty: loyalty,
	}
}

func (c *Catalog) CreateIndexes(ctx context.Context) error {
	byVendor := mongo.IndexModel{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: 1}}}

	if _, err := c.Vendors.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create vendor indexes: %w", err)
	}

	if _, err := c.Customers.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		byVendor,
		{
			Keys:    bson.D{{Key: "vendor_id", Value: 1}, {Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}

	for _, coll := range []*mongo.Collection{c.MenuItems.coll, c.PaymentMethods.coll} {
		if _, err := coll.Indexes().CreateOne(ctx, byVendor); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Attach points the document-backed repositories of store at the catalog.
func (c *Catalog) Attach(store *repository.Store) {
	store.Vendors = c.Vendors
	store.Customers = c.Customers
	store.MenuItems = c.MenuItems
	store.PaymentMethods = c.PaymentMethods
	store.Loyalty = c.Loyalty
}
