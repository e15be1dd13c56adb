// Package tier holds the membership tier catalog and the upgrade
// evaluation used to price commission.
package tier

import (
	"sort"

	"github.com/ZRnown/commissionBot/internal/config"
	"github.com/ZRnown/commissionBot/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tier",
	fx.Provide(NewCatalog),
)

// Tier is one membership level. Rank orders tiers; a higher rank means a
// higher privilege. Price and commission are fixed at load time.
type Tier struct {
	Name              string
	Rank              int
	RoleIDs           []int64
	CommissionPercent int64
	Price             int64
}

// Catalog maps platform role identifiers to tiers. Immutable after
// construction.
type Catalog struct {
	tiers  []Tier
	byRole map[int64]int
}

// NewCatalog validates the configured levels and builds the catalog. Any
// invalid level collapses the catalog to empty: the bot keeps running
// with no paid tiers rather than mispricing commission.
func NewCatalog(levels []config.TierLevel, log *zap.Logger) *Catalog {
	empty := &Catalog{byRole: map[int64]int{}}
	if len(levels) == 0 {
		return empty
	}

	tiers := make([]Tier, 0, len(levels))
	seenRanks := map[int]struct{}{}
	for _, lv := range levels {
		if lv.Tier <= 0 {
			log.Warn("tier catalog invalid: rank must be positive", zap.String("name", lv.Name))
			return empty
		}
		if _, dup := seenRanks[lv.Tier]; dup {
			log.Warn("tier catalog invalid: duplicate rank", zap.Int("rank", lv.Tier))
			return empty
		}
		seenRanks[lv.Tier] = struct{}{}
		if lv.Commission < 0 || lv.Commission > 100 {
			log.Warn("tier catalog invalid: commission out of range", zap.String("name", lv.Name), zap.Int64("commission", lv.Commission))
			return empty
		}
		price, err := money.Parse(lv.Price)
		if err != nil || price < 0 {
			log.Warn("tier catalog invalid: bad price", zap.String("name", lv.Name), zap.String("price", lv.Price))
			return empty
		}
		tiers = append(tiers, Tier{
			Name:              lv.Name,
			Rank:              lv.Tier,
			RoleIDs:           append([]int64(nil), lv.RoleIDs...),
			CommissionPercent: lv.Commission,
			Price:             price,
		})
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rank < tiers[j].Rank })

	byRole := make(map[int64]int)
	for i, t := range tiers {
		for _, roleID := range t.RoleIDs {
			if _, dup := byRole[roleID]; dup {
				log.Warn("tier catalog invalid: role mapped to multiple tiers", zap.Int64("role_id", roleID))
				return empty
			}
			byRole[roleID] = i
		}
	}

	return &Catalog{tiers: tiers, byRole: byRole}
}

// Resolve returns the highest-ranked tier whose role set intersects
// roleIDs, or nil when the member holds no paid role.
func (c *Catalog) Resolve(roleIDs []int64) *Tier {
	var best *Tier
	for _, roleID := range roleIDs {
		i, ok := c.byRole[roleID]
		if !ok {
			continue
		}
		t := &c.tiers[i]
		if best == nil || t.Rank > best.Rank {
			best = t
		}
	}
	return best
}

// ResolveRole returns the tier a single role confers, if any.
func (c *Catalog) ResolveRole(roleID int64) *Tier {
	i, ok := c.byRole[roleID]
	if !ok {
		return nil
	}
	return &c.tiers[i]
}

// Tiers lists the catalog in ascending rank order.
func (c *Catalog) Tiers() []Tier {
	return append([]Tier(nil), c.tiers...)
}

// Rank treats a missing tier as rank zero.
func Rank(t *Tier) int {
	if t == nil {
		return 0
	}
	return t.Rank
}

// Price treats a missing tier as free.
func Price(t *Tier) int64 {
	if t == nil {
		return 0
	}
	return t.Price
}

// HighestRole returns the role identifier recorded for a member's
// current tier, nil when unpaid.
func (c *Catalog) HighestRole(roleIDs []int64) *int64 {
	t := c.Resolve(roleIDs)
	if t == nil || len(t.RoleIDs) == 0 {
		return nil
	}
	for _, roleID := range roleIDs {
		if c.ResolveRole(roleID) == nil {
			continue
		}
		if Rank(c.ResolveRole(roleID)) == t.Rank {
			id := roleID
			return &id
		}
	}
	return nil
}

// CommissionPercentFor resolves the rate an inviter earns: their own
// tier's rate, or the basic-member rate when enabled, else zero.
func (c *Catalog) CommissionPercentFor(roleIDs []int64, basicAllowed bool, basicPercent int64) int64 {
	if t := c.Resolve(roleIDs); t != nil {
		return t.CommissionPercent
	}
	if basicAllowed {
		return basicPercent
	}
	return 0
}
