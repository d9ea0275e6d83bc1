package cache

import "fmt"

func AvailabilityKey(matchID int64) string {
	return fmt.Sprintf("availability:%d", matchID)
}

func MatchKey(matchID int64) string {
	return fmt.Sprintf("match:%d", matchID)
}

// MatchKeys are every key derived from a match's sold counts.
func MatchKeys(matchID int64) []string {
	return []string{AvailabilityKey(matchID), MatchKey(matchID)}
}
