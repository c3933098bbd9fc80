package manifest

import (
	"fmt"
	"go/token"
	"strings"
)

// reservedPackages lists package names that would shadow an import the
// generated file needs.
var reservedPackages = map[string]bool{
	"meosrt": true,
	"unsafe": true,
	"main":   true,
}

// CheckPackageName reports whether name can be used as the package clause of
// the generated file.
func CheckPackageName(name string) error {
	switch {
	case !token.IsIdentifier(name):
		return fmt.Errorf("package %q is not a Go identifier", name)
	case strings.ToLower(name) != name:
		return fmt.Errorf("package %q must be lower case", name)
	case reservedPackages[name]:
		return fmt.Errorf("package %q is reserved", name)
	}
	return nil
}
