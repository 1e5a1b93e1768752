package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "ticketops"

const automationService = modulePath + "/contexts/event-ticketing/automation-service"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule limits what a layer inside a bounded context may import besides
// the standard library.
type layerRule struct {
	layer   string
	allowed []string
}

var layerRules = []layerRule{
	{layer: "domain", allowed: []string{"/domain"}},
	{layer: "ports", allowed: []string{"/domain", modulePath + "/internal/shared"}},
	{layer: "application", allowed: []string{
		"/application",
		"/domain",
		"/ports",
		modulePath + "/internal/shared",
		"golang.org/x/sync",
	}},
	{layer: "transport", allowed: []string{"/transport"}},
}

// vendorOwner pins a third-party SDK to the packages that wrap it. Everything
// else reaches it through a port.
type vendorOwner struct {
	vendor string
	owners []string
}

var vendorOwners = []vendorOwner{
	{vendor: "firebase.google.com/go", owners: []string{automationService + "/adapters/fcm"}},
	{vendor: "google.golang.org/api", owners: []string{automationService + "/adapters/fcm"}},
	{vendor: "gorm.io", owners: []string{
		automationService + "/adapters/postgres",
		modulePath + "/internal/platform/db",
	}},
	{vendor: "github.com/jackc/pgx", owners: []string{automationService + "/adapters/postgres"}},
	{vendor: "github.com/google/uuid", owners: []string{automationService + "/adapters/postgres"}},
	{vendor: "github.com/prometheus/client_golang", owners: []string{
		modulePath + "/internal/platform/metrics",
		modulePath + "/internal/platform/httpserver",
		modulePath + "/internal/app/bootstrap",
	}},
	{vendor: "github.com/swaggo", owners: []string{modulePath + "/internal/platform/httpserver"}},
	{vendor: "github.com/spf13/pflag", owners: []string{modulePath + "/cmd"}},
}

// Adapter packages are wired only by the composition root and the module
// constructor; everything else goes through ports.
var adapterImporters = []string{
	automationService + "/adapters",
	modulePath + "/internal/app/bootstrap",
}

// Platform code sees a bounded context only through its module handle, its
// sentinel errors and its wire DTOs.
var platformContextSurface = []string{
	"/domain/errors",
	"/transport",
}

func main() {
	var violations []violation
	for _, root := range []string{"contexts", "internal", "cmd"} {
		violations = append(violations, collectViolations(root)...)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(file, ".go") || strings.HasSuffix(file, "_test.go") {
			return nil
		}
		violations = append(violations, validateFile(file)...)
		return nil
	})

	return violations
}

func validateFile(file string) []violation {
	normalized := filepath.ToSlash(file)
	pkg := path.Join(modulePath, path.Dir(normalized))

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range parsed.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		for _, rule := range checkImport(pkg, importPath) {
			violations = append(violations, violation{
				File:   normalized,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations
}

// checkImport returns every rule the import from pkg breaks.
func checkImport(pkg string, importPath string) []string {
	var broken []string

	service, layer := contextService(pkg)
	importService, importLayer := contextService(importPath)

	if service != "" && importService != "" && service != importService {
		broken = append(broken, "cross-module imports are forbidden")
	}

	if service != "" {
		for _, rule := range layerRules {
			if rule.layer != layer || isStdlib(importPath) {
				continue
			}
			if !isAllowed(importPath, resolve(service, rule.allowed)) {
				broken = append(broken, rule.layer+" import is outside explicit allowlist")
			}
		}
	}

	for _, owner := range vendorOwners {
		if hasPrefix(importPath, owner.vendor) && !isAllowed(pkg, owner.owners) {
			broken = append(broken, owner.vendor+" is wrapped by "+strings.Join(owner.owners, ", "))
		}
	}

	if importLayer == "adapters" && pkg != importService && !isAllowed(pkg, adapterImporters) {
		broken = append(broken, "adapters are wired only by bootstrap and the module constructor")
	}

	if hasPrefix(pkg, modulePath+"/internal/platform") && importService != "" &&
		importPath != importService && !isAllowed(importPath, resolve(importService, platformContextSurface)) {
		broken = append(broken, "platform may use a context only through its module, errors and DTOs")
	}

	return broken
}

// contextService splits a bounded-context package path into the service root
// and the first layer below it.
func contextService(pkg string) (string, string) {
	prefix := modulePath + "/contexts/"
	if !strings.HasPrefix(pkg, prefix) {
		return "", ""
	}
	parts := strings.Split(strings.TrimPrefix(pkg, prefix), "/")
	if len(parts) < 2 {
		return "", ""
	}
	service := prefix + parts[0] + "/" + parts[1]
	if len(parts) == 2 {
		return service, ""
	}
	return service, parts[2]
}

func resolve(service string, prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if strings.HasPrefix(p, "/") {
			p = service + p
		}
		out = append(out, p)
	}
	return out
}

func hasPrefix(p string, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
