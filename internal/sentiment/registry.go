package sentiment

import (
	"fmt"
	"regexp"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// RegistryError reports a rule that cannot become a labeling function.
type RegistryError struct {
	Function string
	Reason   string
	Err      error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("labeling function %s: %s: %v", e.Function, e.Reason, e.Err)
	}
	return fmt.Sprintf("labeling function %s: %s", e.Function, e.Reason)
}

func (e *RegistryError) Unwrap() error { return e.Err }

type compiledFunction struct {
	fn domain.LabelingFunction
	re *regexp.Regexp
}

// Registry is an ordered, read-only set of labeling functions. It is safe for
// concurrent use.
type Registry struct {
	functions []compiledFunction
}

// NewRegistry compiles every rule in set, in order. Names carry the
// function's position in the registry, so the same set always yields the
// same names.
func NewRegistry(set RuleSet) (*Registry, error) {
	r := &Registry{}
	seen := make(map[string]struct{})

	for _, group := range set {
		if !group.Label.Valid() {
			return nil, &RegistryError{Function: group.Prefix, Reason: fmt.Sprintf("invalid label %d", int(group.Label))}
		}
		for _, rule := range group.Rules {
			name := fmt.Sprintf("%s_%d", group.Prefix, len(r.functions))
			if _, dup := seen[name]; dup {
				return nil, &RegistryError{Function: name, Reason: "duplicate name"}
			}
			if rule.Confidence <= 0 || rule.Confidence > 1 {
				return nil, &RegistryError{Function: name, Reason: fmt.Sprintf("confidence %.3f outside (0, 1]", rule.Confidence)}
			}
			re, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				return nil, &RegistryError{Function: name, Reason: "invalid pattern", Err: err}
			}

			seen[name] = struct{}{}
			r.functions = append(r.functions, compiledFunction{
				fn: domain.LabelingFunction{
					Name:        name,
					Pattern:     rule.Pattern,
					Label:       group.Label,
					Confidence:  rule.Confidence,
					Description: group.Description,
				},
				re: re,
			})
		}
	}
	return r, nil
}

// NewDefaultRegistry builds the registry from DefaultRuleSet.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultRuleSet())
	if err != nil {
		panic(fmt.Sprintf("default rule set is invalid: %v", err))
	}
	return r
}

// Len returns the number of labeling functions.
func (r *Registry) Len() int { return len(r.functions) }

// Functions returns a copy of the labeling functions in registry order.
func (r *Registry) Functions() []domain.LabelingFunction {
	out := make([]domain.LabelingFunction, len(r.functions))
	for i, cf := range r.functions {
		out[i] = cf.fn
	}
	return out
}

// Match returns a vote for every function whose pattern occurs in text, in
// registry order.
func (r *Registry) Match(text string) []domain.LabelVote {
	var votes []domain.LabelVote
	for _, cf := range r.functions {
		if cf.re.MatchString(text) {
			votes = append(votes, domain.LabelVote{
				FunctionName: cf.fn.Name,
				Label:        cf.fn.Label,
				Confidence:   cf.fn.Confidence,
			})
		}
	}
	return votes
}
