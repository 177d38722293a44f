package domain

import (
	"testing"

	"countingsheep/testutil"
)

// The domain model is pure: standard library only, no internal packages.
func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden, "domain must stay dependency free")
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not import internal packages")
}
