package progress

import (
	"testing"

	"lifeplan/testutil"
)

func TestEngineStaysPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.EngineImportForbidden, "progress must work on snapshots only")
}
