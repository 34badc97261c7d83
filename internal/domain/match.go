// Package domain contains entity types without logic, just meta-data.
package domain

// MatchType selects capacity and team rules for a room.
type MatchType string

const (
	OneVsOne   MatchType = "1v1"
	TwoVsTwo   MatchType = "2v2"
	FiveVsFive MatchType = "5v5"
)

// MatchTypes lists every recognized type in a fixed order. Iteration over
// pool minimums follows this slice, not map order.
var MatchTypes = []MatchType{OneVsOne, TwoVsTwo, FiveVsFive}

// ParseMatchType validates a client-supplied type tag.
func ParseMatchType(s string) (MatchType, error) {
	mt := MatchType(s)
	if _, err := mt.RequiredPlayers(); err != nil {
		return "", err
	}
	return mt, nil
}

// RequiredPlayers is the total capacity across both teams.
func (t MatchType) RequiredPlayers() (int, error) {
	switch t {
	case OneVsOne:
		return 2, nil
	case TwoVsTwo:
		return 4, nil
	case FiveVsFive:
		return 10, nil
	default:
		return 0, ErrInvalidMatchType
	}
}

// TeamSize is the per-team capacity. Match types always carry an even
// total, the two-team split relies on it.
func (t MatchType) TeamSize() (int, error) {
	n, err := t.RequiredPlayers()
	if err != nil {
		return 0, err
	}
	return n / 2, nil
}
