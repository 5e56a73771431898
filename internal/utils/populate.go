// internal/utils/populate.go
package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// MergePopulate appends the relations named in a comma separated populate
// query to the default tree. Names are matched case-insensitively against
// allowed (query name -> preload path); unknown names are ignored and the
// result keeps the first occurrence of every path.
func MergePopulate(defaults []string, requested string, allowed map[string]string) []string {
	merged := make([]string, 0, len(defaults))
	seen := make(map[string]bool, len(defaults))

	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		merged = append(merged, path)
	}

	for _, path := range defaults {
		add(path)
	}

	for _, name := range strings.Split(requested, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if path, ok := allowed[name]; ok {
			add(path)
		}
	}

	return merged
}

// GetPopulate reads the populate query parameter.
func GetPopulate(c *gin.Context) string {
	return c.Query("populate")
}
