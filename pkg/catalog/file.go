package catalog

import (
	"fmt"
	"os"

	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/fadedpez/playtimeshop/pkg/storage/file"
	"github.com/go-playground/validator/v10"
)

// DefaultFileName is the catalog file created in the data directory. The
// game mod's own Configuration.json is a different document and is never read.
const DefaultFileName = "ShopCatalog.json"

var validate = validator.New()

type catalogFile struct {
	Offers []offerRecord `json:"offers" validate:"required,dive"`
}

type offerRecord struct {
	Kind        entities.OfferKind `json:"kind" validate:"required,oneof=item stat"`
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Cost        int64              `json:"cost" validate:"gt=0"`
	Quantity    int                `json:"quantity" validate:"gt=0"`
	ItemID      int                `json:"itemId,omitempty" validate:"required_if=Kind item"`
	StatKind    entities.StatKind  `json:"statKind,omitempty" validate:"required_if=Kind stat"`
	MaxStat     int                `json:"maxStat,omitempty" validate:"required_if=Kind stat,gte=0"`
}

func (r offerRecord) toOffer() entities.Offer {
	if r.Kind == entities.OfferKindStat {
		return entities.NewStatOffer(r.Name, r.Description, r.Cost, r.Quantity, r.StatKind, r.MaxStat)
	}
	return entities.NewItemOffer(r.Name, r.Description, r.Cost, r.Quantity, r.ItemID)
}

func recordFromOffer(offer entities.Offer) offerRecord {
	record := offerRecord{
		Kind:        offer.Kind,
		Name:        offer.Name,
		Description: offer.Description,
		Cost:        offer.Cost,
		Quantity:    offer.Quantity,
	}
	if offer.Item != nil {
		record.ItemID = offer.Item.ItemID
	}
	if offer.Stat != nil {
		record.StatKind = offer.Stat.Kind
		record.MaxStat = offer.Stat.MaxStat
	}
	return record
}

// Load reads and validates the catalog file at path
func Load(path string) (*Catalog, error) {
	var doc catalogFile
	if err := file.ReadJSON(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, types.WrapError(types.ErrInvalidCatalog, "failed to parse catalog file", err)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, types.WrapError(types.ErrInvalidCatalog, "catalog file failed validation", err)
	}

	offers := make([]entities.Offer, 0, len(doc.Offers))
	for _, record := range doc.Offers {
		offers = append(offers, record.toOffer())
	}

	return New(offers...)
}

// Save writes the catalog to path, replacing any existing file atomically
func Save(path string, c *Catalog) error {
	doc := catalogFile{Offers: make([]offerRecord, 0, c.Len())}
	for _, offer := range c.offers {
		doc.Offers = append(doc.Offers, recordFromOffer(offer))
	}

	if err := file.WriteJSON(path, doc); err != nil {
		return types.WrapError(types.ErrPersistenceFailure, "failed to write catalog file", err)
	}
	return nil
}

// LoadOrDefault loads the catalog at path, seeding it with DefaultOffers when
// no file exists. An existing file that fails to parse is an error and is never
// overwritten. The second return value reports whether the defaults were written.
func LoadOrDefault(path string) (*Catalog, bool, error) {
	exists, err := file.Exists(path)
	if err != nil {
		return nil, false, types.WrapError(types.ErrPersistenceFailure, fmt.Sprintf("failed to stat %s", path), err)
	}

	if exists {
		c, err := Load(path)
		if err != nil {
			return nil, false, err
		}
		return c, false, nil
	}

	c := Default()
	if err := Save(path, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}
