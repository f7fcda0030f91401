package memory

import (
	"strings"
	"testing"

	"lifeplan/testutil"
)

func TestImportsAreDomainOrRelationship(t *testing.T) {
	allowed := map[string]struct{}{
		"lifeplan/pkg/domain":            {},
		"lifeplan/internal/relationship": {},
	}
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		if !strings.HasPrefix(path, "lifeplan/") {
			return false
		}
		_, ok := allowed[path]
		return !ok
	}, "the memory store depends on the domain contract only")
}
