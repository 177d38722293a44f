package core_test

import (
	"testing"

	"countingsheep/testutil"
)

func TestCoreDoesNotImportBackends(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "core talks to storage through persistence only")
}
