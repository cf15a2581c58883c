package entities

import (
	"fmt"
	"strings"
)

// OfferKind tags which reward payload an Offer carries
type OfferKind string

const (
	OfferKindItem OfferKind = "item"
	OfferKindStat OfferKind = "stat"
)

// StatKind identifies a character stat that a StatOffer raises
type StatKind string

const (
	StatHealth      StatKind = "health"
	StatExperience  StatKind = "experience"
	StatFood        StatKind = "food"
	StatStamina     StatKind = "stamina"
	StatOxygen      StatKind = "oxygen"
	StatRadiation   StatKind = "radiation"
	StatTemperature StatKind = "temperature"
)

// StatKinds lists every supported stat in display order
var StatKinds = []StatKind{
	StatHealth,
	StatExperience,
	StatFood,
	StatStamina,
	StatOxygen,
	StatRadiation,
	StatTemperature,
}

// statAliases accepts the short names used by older catalog files
var statAliases = map[string]StatKind{
	"life": StatHealth,
	"exp":  StatExperience,
	"oxy":  StatOxygen,
	"rad":  StatRadiation,
	"temp": StatTemperature,
}

// ParseStatKind resolves a stat name or alias, case-insensitively
func ParseStatKind(s string) (StatKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, kind := range StatKinds {
		if string(kind) == name {
			return kind, nil
		}
	}
	if kind, ok := statAliases[name]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("unknown stat kind %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so catalog files may use aliases
func (k *StatKind) UnmarshalText(text []byte) error {
	kind, err := ParseStatKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ItemGrant is the payload of an offer that hands out inventory items
type ItemGrant struct {
	ItemID int // Host item identifier
}

// StatGrant is the payload of an offer that raises a character stat
type StatGrant struct {
	Kind    StatKind
	MaxStat int // Grant is refused if current + quantity would exceed this
}

// Offer is one purchasable catalog entry. Exactly one of Item or Stat is set,
// matching Kind.
type Offer struct {
	Kind        OfferKind
	Name        string // Unique, matched case-insensitively
	Description string
	Cost        int64 // Points debited on a successful grant
	Quantity    int   // Item units or stat increase

	Item *ItemGrant
	Stat *StatGrant
}

// NewItemOffer creates an offer granting quantity units of itemID
func NewItemOffer(name, description string, cost int64, quantity, itemID int) Offer {
	return Offer{
		Kind:        OfferKindItem,
		Name:        name,
		Description: description,
		Cost:        cost,
		Quantity:    quantity,
		Item:        &ItemGrant{ItemID: itemID},
	}
}

// NewStatOffer creates an offer raising kind by quantity, up to maxStat
func NewStatOffer(name, description string, cost int64, quantity int, kind StatKind, maxStat int) Offer {
	return Offer{
		Kind:        OfferKindStat,
		Name:        name,
		Description: description,
		Cost:        cost,
		Quantity:    quantity,
		Stat:        &StatGrant{Kind: kind, MaxStat: maxStat},
	}
}

// Validate checks the offer's shared fields and that its payload matches its kind
func (o Offer) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("offer name is required")
	}
	if o.Cost <= 0 {
		return fmt.Errorf("offer %q: cost must be positive", o.Name)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("offer %q: quantity must be positive", o.Name)
	}

	switch o.Kind {
	case OfferKindItem:
		if o.Item == nil || o.Stat != nil {
			return fmt.Errorf("offer %q: item offer needs exactly an item payload", o.Name)
		}
	case OfferKindStat:
		if o.Stat == nil || o.Item != nil {
			return fmt.Errorf("offer %q: stat offer needs exactly a stat payload", o.Name)
		}
		if _, err := ParseStatKind(string(o.Stat.Kind)); err != nil {
			return fmt.Errorf("offer %q: %w", o.Name, err)
		}
		if o.Stat.MaxStat <= 0 {
			return fmt.Errorf("offer %q: max stat must be positive", o.Name)
		}
	default:
		return fmt.Errorf("offer %q: unknown kind %q", o.Name, o.Kind)
	}

	return nil
}

// String renders the offer the way the help text lists it
func (o Offer) String() string {
	return fmt.Sprintf("%d %s for %d points", o.Quantity, o.Description, o.Cost)
}
