package security

import "github.com/kailas-cloud/esquery/internal/domain"

// Complexity weights.
const (
	LogicalFactor  = 2
	NestedFactor   = 5
	JoinFactor     = 3
	PatternCost    = 5
	PrefixCost     = 3
	ScriptCost     = 15
	MaxArrayWeight = 10
)

// CalculateComplexity scores q: one point per key, a fixed surcharge per
// expensive operator, multiplied child scores below $or/$and/$nested/
// $child/$parent and additive plain objects. An array adds its length up
// to MaxArrayWeight; array size has its own limit.
func CalculateComplexity(q any) int {
	obj, ok := asMap(q)
	if !ok {
		return 0
	}

	score := 0
	for key, value := range obj {
		score++
		switch key {
		case "$or", "$and":
			if items, ok := asSlice(value); ok {
				for _, item := range items {
					score += CalculateComplexity(item) * LogicalFactor
				}
			}
		case "$nested":
			score += CalculateComplexity(value) * NestedFactor
		case "$child", "$parent":
			score += CalculateComplexity(value) * JoinFactor
		case "$wildcard", "$regexp", "$fuzzy":
			score += PatternCost
		case "$prefix":
			score += PrefixCost
		case "$script":
			score += ScriptCost
		default:
			if items, ok := asSlice(value); ok {
				score += min(len(items), MaxArrayWeight)
			} else if _, ok := asMap(value); ok {
				score += CalculateComplexity(value)
			}
		}
	}
	return score
}

// CheckComplexity fails when the score of q exceeds maxComplexity.
func CheckComplexity(q any, maxComplexity int) error {
	if score := CalculateComplexity(q); score > maxComplexity {
		return &domain.ComplexityError{Score: score, Max: maxComplexity}
	}
	return nil
}
