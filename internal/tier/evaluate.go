package tier

// Upgrade describes a qualifying tier transition. IncrementalPrice is
// the difference between the new and previous tier price, the base on
// which commission is computed.
type Upgrade struct {
	After            *Tier
	IncrementalPrice int64
}

// Evaluate compares a member's role set before and after a change and
// reports a qualifying upgrade, or nil. Downgrades, lateral moves and
// upgrades to a tier priced at or below the previous one never qualify.
// A member skipping tiers is charged the full price delta, so
// intermediate tiers need no replay.
func (c *Catalog) Evaluate(beforeRoles, afterRoles []int64) *Upgrade {
	before := c.Resolve(beforeRoles)
	after := c.Resolve(afterRoles)
	if after == nil {
		return nil
	}
	if Rank(after) <= Rank(before) {
		return nil
	}
	incremental := Price(after) - Price(before)
	if incremental <= 0 {
		return nil
	}
	return &Upgrade{After: after, IncrementalPrice: incremental}
}
