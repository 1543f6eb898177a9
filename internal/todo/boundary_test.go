package todo_test

import (
	"testing"

	"todoboard/testutil"
)

func TestTodoPackageStaysTransportFree(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(ip string) bool {
		return testutil.TransportImportForbidden(ip) || testutil.InfraImportForbidden(ip)
	}, "internal/todo holds the record, patch and store contract only")
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InfraImportForbidden, "the store contract must not depend on its implementations")
}
