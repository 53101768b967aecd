//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/leapmigrate"

// TestGovernance_CoreCohesion verifies that exported types in pkg/core are
// shared by more than one package. A type with a single consumer belongs in
// that consumer.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	coreDefs := make(map[types.Object]string)
	for _, p := range pkgs {
		if p.PkgPath != modulePath+"/pkg/core" {
			continue
		}
		scope := p.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if _, isType := obj.(*types.TypeName); isType && obj.Exported() {
				coreDefs[obj] = name
			}
		}
	}
	if len(coreDefs) == 0 {
		t.Fatal("Could not find pkg/core")
	}

	usage := make(map[string]map[string]bool)
	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" || p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if name, ok := coreDefs[obj]; ok {
				if usage[name] == nil {
					usage[name] = make(map[string]bool)
				}
				usage[name][strings.TrimPrefix(p.PkgPath, modulePath+"/")] = true
			}
		}
	}

	for _, name := range coreDefs {
		switch len(usage[name]) {
		case 0:
			t.Logf("WARNING: unused core type: %s", name)
		case 1:
			if name == "DialectConfig" || name == "AutoIncrementConfig" {
				continue
			}
			for user := range usage[name] {
				t.Errorf("COHESION VIOLATION: core.%s is used only by %s", name, user)
			}
		}
	}
}

// TestGovernance_NoTypeAliasReexports ensures pkg/parser and pkg/format do not
// re-export AST types as aliases; consumers use core directly.
func TestGovernance_NoTypeAliasReexports(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes}
	pkgs, err := packages.Load(cfg, modulePath+"/pkg/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	guarded := map[string]bool{
		modulePath + "/pkg/parser": true,
		modulePath + "/pkg/format": true,
	}
	for _, pkg := range pkgs {
		if !guarded[pkg.PkgPath] || len(pkg.Errors) > 0 {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.IsAlias() {
				continue
			}
			if named, ok := types.Unalias(tn.Type()).(*types.Named); ok {
				if obj := named.Obj(); obj.Pkg() != nil && obj.Pkg().Path() == modulePath+"/pkg/core" {
					t.Errorf("%s re-exports core.%s as an alias", pkg.PkgPath, obj.Name())
				}
			}
		}
	}
}
