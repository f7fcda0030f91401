package relationship

import (
	"testing"

	"lifeplan/testutil"
)

func TestEngineStaysPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.EngineImportForbidden, "relationship must work on snapshots only")
}
