package store

import (
	"fmt"
	"strings"
)

// BrokerKey is the storage key of a user's connection record for broker.
func BrokerKey(userID, broker string) string {
	return fmt.Sprintf("broker:%s:%s", userID, strings.ToLower(broker))
}

// PortfolioKey is the storage key of a user's portfolio record for broker.
func PortfolioKey(userID, broker string) string {
	return fmt.Sprintf("portfolio:%s:%s", userID, strings.ToLower(broker))
}

// BrokerPrefix matches every connection record of a user.
func BrokerPrefix(userID string) string { return fmt.Sprintf("broker:%s:", userID) }

// PortfolioPrefix matches every portfolio record of a user.
func PortfolioPrefix(userID string) string { return fmt.Sprintf("portfolio:%s:", userID) }

// ownedBy reports whether key, returned by a scan over prefix, belongs to
// that prefix's user. A further ':' means the key was written for a longer
// user id that shares the prefix.
func ownedBy(prefix, key string) bool {
	return !strings.Contains(strings.TrimPrefix(key, prefix), ":")
}
