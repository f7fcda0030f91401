package catalog

import (
	"testing"

	"lifeplan/testutil"
)

func TestEngineStaysPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.EngineImportForbidden, "catalog must work on snapshots only")
}
