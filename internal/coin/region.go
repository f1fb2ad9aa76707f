package coin

import "github.com/kyiku/coin-gacha-back/internal/geometry"

// RegionRule controls how an anchor is turned into a forbidden region.
type RegionRule struct {
	Padding        float64 `yaml:"padding"`
	ExtraClearance float64 `yaml:"extra_clearance"`
}

// RegionRules maps anchor names to their rules.
type RegionRules map[string]RegionRule

// DefaultRegionRules returns the rules used by the page: decorative anchors
// are padded, the machine needs a wider gap instead.
func DefaultRegionRules() RegionRules {
	return RegionRules{
		AnchorTitle:   {Padding: 8},
		AnchorTip:     {Padding: 8},
		AnchorMachine: {ExtraClearance: 10},
	}
}

// ForbiddenRegion is a padded rectangle a coin circle may not intersect.
type ForbiddenRegion struct {
	Name      string        `json:"name"`
	Rect      geometry.Rect `json:"rect"`
	Clearance float64       `json:"clearance"`
}

// Violates reports whether a coin centered at p is too close to the region.
func (f ForbiddenRegion) Violates(p geometry.Point) bool {
	return f.Rect.DistanceTo(p) < f.Clearance
}

// BuildRegions derives forbidden regions from the current anchors.
// Anchors without a rule are used unpadded with the plain coin radius.
func BuildRegions(anchors []Anchor, rules RegionRules, coinRadius float64) []ForbiddenRegion {
	regions := make([]ForbiddenRegion, 0, len(anchors))
	for _, a := range anchors {
		rule := rules[a.Name]
		regions = append(regions, ForbiddenRegion{
			Name:      a.Name,
			Rect:      a.Rect.Pad(rule.Padding),
			Clearance: coinRadius + rule.ExtraClearance,
		})
	}
	return regions
}
