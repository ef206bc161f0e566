package sentiment

import "github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"

// Rule confidence levels used by the default rule set.
const (
	confVeryHigh = 0.95
	confHigh     = 0.9
	confStrong   = 0.85
	confMedium   = 0.8
	confModerate = 0.75
	confLow      = 0.7
)

// Rule is one pattern and the confidence it votes with.
type Rule struct {
	Pattern    string  `json:"pattern"    yaml:"pattern"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// RuleGroup is a set of rules sharing a label and rationale. Functions built
// from a group are named Prefix_<registry index>.
type RuleGroup struct {
	Prefix      string                `json:"prefix"      yaml:"prefix"`
	Label       domain.SentimentLabel `json:"label"       yaml:"label"`
	Description string                `json:"description" yaml:"description"`
	Rules       []Rule                `json:"rules"       yaml:"rules"`
}

// RuleSet is the ordered rule data a Registry is built from. It is treated
// as immutable: NewRegistry copies what it needs.
type RuleSet []RuleGroup

// DefaultRuleSet returns the fan-comment rules: in-group praise, music slang,
// engagement, enthusiastic and plain requests, and negative indicators.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		{
			Prefix:      "aave",
			Label:       domain.Positive,
			Description: "AAVE/in-group praise",
			Rules: []Rule{
				{`\b(snapped|ate|served|killed it|bodied|went off)\b`, confHigh},
				{`\b(my|this|he|she)\s+(nigga|bro|sis)\s+(snapped|ate|killed)`, confVeryHigh},
				{`\b(slay|periodt|no cap|ate that|understood the assignment)\b`, confStrong},
			},
		},
		{
			Prefix:      "music_pos",
			Label:       domain.Positive,
			Description: "Music-specific positive",
			Rules: []Rule{
				{`\b(fire|lit|slaps|bangs|hits different|goes hard|hard af)\b`, confMedium},
				{`\b(sick|crazy|insane|wild|dope|clean)\b`, confLow},
				{`\b(bop|anthem|vibe|mood|energy|talent)\b`, confModerate},
				{`\b(banger|absolute banger|this is it)\b`, confStrong},
			},
		},
		{
			Prefix:      "engagement",
			Label:       domain.Positive,
			Description: "Engagement indicator",
			Rules: []Rule{
				{`\b(playlist|repeat|loop|obsessed|addicted)\b`, confLow},
				{`\b(car test|gym playlist|study music)\b`, confMedium},
				{`\b(on repeat|can't stop|playing this)\b`, confModerate},
			},
		},
		{
			Prefix:      "enthus_req",
			Label:       domain.Positive,
			Description: "Enthusiastic request",
			Rules: []Rule{
				{`\b(drop|release).*\b(already|now|please)\b.*[!]{2,}`, confMedium},
				{`\b(need|want).*\b(now|asap)\b.*🔥`, confStrong},
				{`\bvisuals\s+when\?+!+`, confMedium},
				{`\bthese\s+lyrics!+`, confModerate},
			},
		},
		{
			Prefix:      "plain_req",
			Label:       domain.Neutral,
			Description: "Plain request",
			Rules: []Rule{
				{`^\s*(who\s+(produced|mixed|made)\s+this)\s*\??\s*$`, confMedium},
				{`^\s*(what'?s\s+the\s+sample)\s*\??\s*$`, confMedium},
				{`^\s*(lyrics)\s*\??\s*$`, confLow},
				{`^\s*(clean\s+version)\s*\??\s*$`, confLow},
			},
		},
		{
			Prefix:      "negative",
			Label:       domain.Negative,
			Description: "Negative indicator",
			Rules: []Rule{
				{`\b(trash|garbage|wack|mid|overrated|flop)\b`, confStrong},
				{`\b(boring|generic|basic|cringe)\b`, confModerate},
				{`\b(who approved this|went double wood|fell off)\b`, confHigh},
				{`\b(hate|terrible|awful|worst)\b`, confMedium},
			},
		},
	}
}
