package botdetect

import (
	"fmt"
	"time"
)

// GroupingStrategy selects how comments are bucketed for global
// near-duplicate counting.
type GroupingStrategy string

const (
	// GroupingPrefixBucket groups by first rune and rune length / 5.
	GroupingPrefixBucket GroupingStrategy = "prefix_bucket"
	// GroupingMinHash groups by MinHash LSH candidates merged with union-find.
	GroupingMinHash GroupingStrategy = "minhash"
)

// Defaults.
const (
	DefaultNearDupeThreshold = 0.90
	DefaultMinDupeCluster    = 3
	DefaultBurstWindow       = 30 * time.Second
	DefaultEmojiMaxWeight    = 0.15
	DefaultNgramMin          = 3
	DefaultNgramMax          = 5
	DefaultMaxGroupSize      = 5000
)

// Weights are the bot score component weights.
type Weights struct {
	DupeLocal        float64 `json:"dupe_local"`
	DupeGlobal       float64 `json:"dupe_global"`
	Burstiness       float64 `json:"burstiness"`
	AuthorRepetition float64 `json:"author_repetition"`
	LowEngagement    float64 `json:"low_engagement"`
}

// DefaultWeights returns 0.40 / 0.20 / 0.20 / 0.15 / 0.05.
func DefaultWeights() Weights {
	return Weights{
		DupeLocal:        0.40,
		DupeGlobal:       0.20,
		Burstiness:       0.20,
		AuthorRepetition: 0.15,
		LowEngagement:    0.05,
	}
}

// Config controls the bot-suspicion scorer.
type Config struct {
	// WhitelistPhrases are legitimate fan expressions. A comment containing
	// one has its duplicate components dampened.
	WhitelistPhrases  []string
	NearDupeThreshold float64
	MinDupeCluster    int
	BurstWindow       time.Duration
	EmojiMaxWeight    float64
	Weights           Weights
	NgramMin          int
	NgramMax          int
	// MaxGroupSize caps a global similarity group. Zero or less disables the cap.
	MaxGroupSize   int
	GlobalGrouping GroupingStrategy
}

// DefaultWhitelist returns the stock fan phrases.
func DefaultWhitelist() []string {
	return []string{
		"love this", "dope", "this is dope", "great song", "love u",
		"🔥", "🔥🔥", "🔥🔥🔥", "🔥🔥🔥🔥", "🔥🔥🔥🔥🔥",
		"🌊", "🌊🌊", "🌊🌊🌊", "🌊🌊🌊🌊", "🌊🌊🌊🌊🌊",
		"fire", "waves", "wavy", "this waves",
		"crazy", "this crazy", "this is crazy",
		"fye", "this beat is fye",
		"hard", "so hard", "too hard", "this hard",
		"this fire", "straight fire",
		"banger", "slaps", "goated",
		"amazing", "incredible", "beautiful", "perfect", "masterpiece",
	}
}

// DefaultConfig returns the reference scorer settings.
func DefaultConfig() Config {
	return Config{
		WhitelistPhrases:  DefaultWhitelist(),
		NearDupeThreshold: DefaultNearDupeThreshold,
		MinDupeCluster:    DefaultMinDupeCluster,
		BurstWindow:       DefaultBurstWindow,
		EmojiMaxWeight:    DefaultEmojiMaxWeight,
		Weights:           DefaultWeights(),
		NgramMin:          DefaultNgramMin,
		NgramMax:          DefaultNgramMax,
		MaxGroupSize:      DefaultMaxGroupSize,
		GlobalGrouping:    GroupingPrefixBucket,
	}
}

// ConfigError reports an out-of-range setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid bot detection config %s: %s", e.Field, e.Message)
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.NearDupeThreshold < 0.5 || c.NearDupeThreshold >= 1.0 {
		return &ConfigError{Field: "near_dupe_threshold", Message: fmt.Sprintf("%.3f not in [0.5, 1.0)", c.NearDupeThreshold)}
	}
	if c.MinDupeCluster <= 0 {
		return &ConfigError{Field: "min_dupe_cluster", Message: "must be positive"}
	}
	if c.BurstWindow <= 0 {
		return &ConfigError{Field: "burst_window", Message: "must be positive"}
	}
	if c.EmojiMaxWeight < 0 || c.EmojiMaxWeight > 0.5 {
		return &ConfigError{Field: "emoji_max_weight", Message: fmt.Sprintf("%.3f not in [0, 0.5]", c.EmojiMaxWeight)}
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"weights.dupe_local":        w.DupeLocal,
		"weights.dupe_global":       w.DupeGlobal,
		"weights.burstiness":        w.Burstiness,
		"weights.author_repetition": w.AuthorRepetition,
		"weights.low_engagement":    w.LowEngagement,
	} {
		if v < 0 {
			return &ConfigError{Field: name, Message: "must not be negative"}
		}
	}
	if c.NgramMin <= 0 || c.NgramMax <= 0 || c.NgramMin > c.NgramMax {
		return &ConfigError{Field: "ngram_range", Message: fmt.Sprintf("invalid range [%d, %d]", c.NgramMin, c.NgramMax)}
	}
	switch c.GlobalGrouping {
	case GroupingPrefixBucket, GroupingMinHash:
	default:
		return &ConfigError{Field: "global_grouping", Message: fmt.Sprintf("unknown strategy %q", c.GlobalGrouping)}
	}
	return nil
}
