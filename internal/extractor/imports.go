package extractor

import (
	"regexp"
	"strings"

	"modbridge/internal/ir"
)

var importPattern = regexp.MustCompile(`(?m)^\s*import\s+(static\s+)?([\w.$]+?)(\.\*)?\s*;`)

// ExtractImports scans raw source text for import statements. It does not use
// the syntax tree. Duplicate imports collapse to one entry.
func ExtractImports(source string) []ir.Import {
	var imports []ir.Import
	seen := make(map[ir.Import]bool)
	for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
		imp := splitImport(m[2], m[3] != "")
		imp.Static = m[1] != ""
		if seen[imp] {
			continue
		}
		seen[imp] = true
		imports = append(imports, imp)
	}
	return imports
}

func splitImport(path string, wildcard bool) ir.Import {
	if wildcard {
		return ir.Import{Package: path, ClassName: "*"}
	}
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ir.Import{ClassName: path}
	}
	return ir.Import{Package: path[:i], ClassName: path[i+1:]}
}

var classifierPrefixes = []struct {
	prefix     string
	classifier ir.Classifier
}{
	{"net.minecraftforge", ir.ClassifierForge},
	{"net.neoforged", ir.ClassifierForge},
	{"net.fabricmc", ir.ClassifierFabric},
	{"net.minecraft", ir.ClassifierMinecraft},
	{"com.mojang", ir.ClassifierMinecraft},
}

// Classify maps a package name to its origin.
func Classify(pkg string) ir.Classifier {
	for _, c := range classifierPrefixes {
		if pkg == c.prefix || strings.HasPrefix(pkg, c.prefix+".") {
			return c.classifier
		}
	}
	return ir.ClassifierExternal
}

// BuildDependencies turns distinct imports into classified dependencies.
// Platform imports and static imports are marked required.
func BuildDependencies(imports []ir.Import) []ir.Dependency {
	deps := make([]ir.Dependency, 0, len(imports))
	for _, imp := range imports {
		c := Classify(imp.Package)
		deps = append(deps, ir.Dependency{
			PackageName: imp.Package,
			ClassName:   imp.ClassName,
			Classifier:  c,
			Required:    c != ir.ClassifierExternal || imp.Static,
		})
	}
	return deps
}
