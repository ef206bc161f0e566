package botdetect

import (
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/textnorm"
)

// Whitelist matches fan phrases as substrings in one pass over the text.
// The matcher keeps per-call state, so Contains serializes on mu.
type Whitelist struct {
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
	phrases []string
}

// NewWhitelist normalizes phrases the way comments are normalized and builds
// the matcher. Empty phrases are dropped.
func NewWhitelist(phrases []string) *Whitelist {
	seen := make(map[string]struct{}, len(phrases))
	kept := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = textnorm.Normalize(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, p)
	}

	w := &Whitelist{phrases: kept}
	if len(kept) > 0 {
		w.matcher = ahocorasick.NewStringMatcher(kept)
	}
	return w
}

// Len returns the number of distinct phrases.
func (w *Whitelist) Len() int { return len(w.phrases) }

// Contains reports whether any phrase occurs in text.
func (w *Whitelist) Contains(text string) bool {
	if w.matcher == nil || text == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.matcher.Match([]byte(text))) > 0
}
