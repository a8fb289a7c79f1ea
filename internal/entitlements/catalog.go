package entitlements

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/angelmondragon/artx-bot/pkg/config"
)

// Tier is a purchasable entitlement level. The zero value is TierNone.
type Tier string

const TierNone Tier = ""

// ParseTier normalizes a plan name as written in metadata or config.
func ParseTier(raw string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(raw)))
}

func (t Tier) String() string {
	if t == TierNone {
		return "none"
	}
	return string(t)
}

// TierSpec binds a tier to its Discord role and Stripe price.
type TierSpec struct {
	Tier        Tier   `validate:"required,alphanum,lowercase,max=24"`
	DisplayName string `validate:"required"`
	RoleID      string
	PriceID     string
}

// Catalog is the immutable tier mapping loaded at startup.
type Catalog struct {
	specs  []TierSpec
	byTier map[Tier]TierSpec
}

var specValidator = validator.New()

// NewCatalog validates the mapping: tier names must be unique and no two tiers
// may share a role.
func NewCatalog(specs ...TierSpec) (*Catalog, error) {
	c := &Catalog{byTier: make(map[Tier]TierSpec, len(specs))}
	roles := make(map[string]Tier, len(specs))

	var errs error
	for _, spec := range specs {
		spec.Tier = ParseTier(string(spec.Tier))
		spec.RoleID = strings.TrimSpace(spec.RoleID)
		spec.PriceID = strings.TrimSpace(spec.PriceID)
		if spec.DisplayName == "" {
			spec.DisplayName = strings.ToUpper(string(spec.Tier))
		}
		if err := specValidator.Struct(spec); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tier %q: %w", spec.Tier, err))
			continue
		}
		if _, dup := c.byTier[spec.Tier]; dup {
			errs = multierr.Append(errs, fmt.Errorf("tier %q declared twice", spec.Tier))
			continue
		}
		if spec.RoleID != "" {
			if other, taken := roles[spec.RoleID]; taken {
				errs = multierr.Append(errs, fmt.Errorf("tiers %q and %q share role %s", other, spec.Tier, spec.RoleID))
				continue
			}
			roles[spec.RoleID] = spec.Tier
		}
		c.byTier[spec.Tier] = spec
		c.specs = append(c.specs, spec)
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

// CatalogFromConfig builds the catalog from the per-tier environment settings.
func CatalogFromConfig(cfg config.TiersConfig) (*Catalog, error) {
	settings := cfg.Settings()
	specs := make([]TierSpec, 0, len(settings))
	for _, s := range settings {
		specs = append(specs, TierSpec{
			Tier:    Tier(s.Name),
			RoleID:  s.RoleID,
			PriceID: s.PriceID,
		})
	}
	return NewCatalog(specs...)
}

// Lookup returns the spec for a known tier.
func (c *Catalog) Lookup(tier Tier) (TierSpec, bool) {
	if c == nil || tier == TierNone {
		return TierSpec{}, false
	}
	spec, ok := c.byTier[ParseTier(string(tier))]
	return spec, ok
}

// RoleID resolves tier to its role. Absent for TierNone, unknown tiers and
// tiers without a configured role.
func (c *Catalog) RoleID(tier Tier) (string, bool) {
	spec, ok := c.Lookup(tier)
	if !ok || spec.RoleID == "" {
		return "", false
	}
	return spec.RoleID, true
}

// PriceID resolves tier to its Stripe price.
func (c *Catalog) PriceID(tier Tier) (string, bool) {
	spec, ok := c.Lookup(tier)
	if !ok || spec.PriceID == "" {
		return "", false
	}
	return spec.PriceID, true
}

// HasEntitlement reports whether memberRoles contains the tier's role.
// Unconfigured tiers grant nothing.
func (c *Catalog) HasEntitlement(memberRoles []string, tier Tier) bool {
	roleID, ok := c.RoleID(tier)
	if !ok {
		return false
	}
	for _, held := range memberRoles {
		if held == roleID {
			return true
		}
	}
	return false
}

// Tiers returns every configured tier in declaration order.
func (c *Catalog) Tiers() []TierSpec {
	if c == nil {
		return nil
	}
	out := make([]TierSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Sellable returns the tiers that have a price and can be purchased.
func (c *Catalog) Sellable() []TierSpec {
	var out []TierSpec
	for _, spec := range c.Tiers() {
		if spec.PriceID != "" {
			out = append(out, spec)
		}
	}
	return out
}
