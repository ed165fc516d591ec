package templates

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/databind/observe"
)

// nodeID derives a graphviz safe identifier from the same hash the registry ids use.
func nodeID(path string) string {
	return "n" + hexID(xxhash.Sum64String(path))
}

func parentPath(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func hasPath(infos []observe.DepInfo, path string) bool {
	for _, info := range infos {
		if info.Path == path {
			return true
		}
	}
	return false
}

func hexID(id uint64) string {
	return strconv.FormatUint(id, 16)
}
