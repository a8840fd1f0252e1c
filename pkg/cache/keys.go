// Package cache provides standardized cache key generation functions.
// All keys follow the pattern: "prefix:identifier[:name]".
package cache

import (
	"fmt"
)

// TabPrefix scopes every durable record to the tab that wrote it.
const TabPrefix = "tab:"

// TabKey generates the key of one named item of a tab's durable storage.
//
// Example: "tab:3f0c...:userEmail"
func TabKey(tabID, name string) string {
	return fmt.Sprintf("%s%s:%s", TabPrefix, tabID, name)
}

// TabPattern returns a glob pattern matching every item of a tab.
// Use with DeletePattern when the tab is closed.
//
// Example: "tab:3f0c...:*"
func TabPattern(tabID string) string {
	return fmt.Sprintf("%s%s:*", TabPrefix, tabID)
}
