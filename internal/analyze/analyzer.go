package analyze

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/stackweaver/stackweaver/internal/generate"
)

// PatternRule detects one coding idiom across a file batch. Rules are
// data, not control flow: adding an idiom means adding a table entry.
type PatternRule struct {
	Name      string
	Predicate func(f generate.GeneratedFile) bool
}

// Analyzer scans generated files for structure. The zero value uses the
// default pattern rule table.
type Analyzer struct {
	Rules []PatternRule
}

// New returns an Analyzer with the default pattern rules installed.
func New() *Analyzer {
	return &Analyzer{Rules: DefaultPatternRules()}
}

// DefaultPatternRules is the built-in idiom table shared across phases so
// later generation stays stylistically consistent with earlier output.
func DefaultPatternRules() []PatternRule {
	contains := func(markers ...string) func(generate.GeneratedFile) bool {
		return func(f generate.GeneratedFile) bool {
			for _, m := range markers {
				if strings.Contains(f.Content, m) {
					return true
				}
			}
			return false
		}
	}
	return []PatternRule{
		{Name: "state:react-hooks", Predicate: contains("useState(", "useReducer(")},
		{Name: "state:zustand", Predicate: contains("create(", "zustand")},
		{Name: "data:fetch", Predicate: contains("fetch(")},
		{Name: "data:swr", Predicate: contains("useSWR(")},
		{Name: "data:react-query", Predicate: contains("useQuery(", "useMutation(")},
		{Name: "forms:react-hook-form", Predicate: contains("useForm(")},
		{Name: "forms:zod", Predicate: contains("z.object(", "zod")},
		{Name: "auth:session", Predicate: contains("getSession(", "useSession(")},
		{Name: "auth:jwt", Predicate: contains("jwt.sign(", "verifyToken(")},
		{Name: "errors:boundary", Predicate: contains("ErrorBoundary")},
		{Name: "errors:try-catch", Predicate: contains("try {")},
	}
}

// Analyze classifies each file, extracts exports, imports, and API
// contracts, and detects established patterns across the batch.
func (a *Analyzer) Analyze(files []generate.GeneratedFile) Analysis {
	rules := a.Rules
	if rules == nil {
		rules = DefaultPatternRules()
	}

	var out Analysis
	seen := make(map[string]bool)

	for _, f := range files {
		ft := ClassifyFile(f.Path, f.Content)
		af := AccumulatedFile{
			Path:    f.Path,
			Type:    ft,
			Content: f.Content,
			Exports: ExtractExports(f.Content),
			Imports: ExtractImports(f.Content),
		}
		af.Summary = summarize(af)
		out.Files = append(out.Files, af)

		if ft == FileAPI {
			out.Contracts = append(out.Contracts, ExtractContracts(f.Path, f.Content)...)
		}

		for _, r := range rules {
			if !seen[r.Name] && r.Predicate(f) {
				seen[r.Name] = true
				out.Patterns = append(out.Patterns, r.Name)
			}
		}
	}
	return out
}

// ClassifyFile infers a file's type from its path and content signature.
// Route-like paths win over extension heuristics; declaration-only content
// is classified as a type file regardless of location.
func ClassifyFile(p, content string) FileType {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	ext := path.Ext(base)

	switch {
	case strings.Contains(lower, "/api/") || strings.HasPrefix(lower, "api/") ||
		base == "route.ts" || base == "route.js" ||
		strings.Contains(lower, "/routes/") || strings.Contains(lower, "server/"):
		return FileAPI
	case ext == ".css" || ext == ".scss" || ext == ".sass" || ext == ".less":
		return FileStyle
	case isConfigFile(base):
		return FileConfig
	case strings.HasSuffix(base, ".d.ts") || strings.Contains(lower, "/types/") ||
		base == "types.ts" || declarationOnly(content):
		return FileTypeDecl
	case strings.Contains(lower, "/utils/") || strings.Contains(lower, "/lib/") ||
		strings.Contains(lower, "/helpers/") || base == "utils.ts":
		return FileUtil
	case ext == ".tsx" || ext == ".jsx" || strings.Contains(lower, "/components/") ||
		strings.Contains(lower, "/pages/") || strings.Contains(lower, "/app/"):
		return FileComponent
	default:
		return FileOther
	}
}

func isConfigFile(base string) bool {
	switch base {
	case "package.json", "tsconfig.json", "next.config.js", "next.config.mjs",
		"vite.config.ts", "vite.config.js", "tailwind.config.js", "tailwind.config.ts",
		".env", ".env.local", "postcss.config.js":
		return true
	}
	return strings.Contains(base, ".config.")
}

// declarationOnly reports whether every non-trivial line is part of a type,
// interface, or enum declaration.
func declarationOnly(content string) bool {
	sawDecl := false
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*") {
			continue
		}
		if t == "}" || t == "};" || strings.HasPrefix(t, "}") {
			continue
		}
		if declLine.MatchString(t) {
			sawDecl = true
			continue
		}
		if insideDecl.MatchString(t) {
			continue
		}
		return false
	}
	return sawDecl
}

var (
	declLine   = regexp.MustCompile(`^(export\s+)?(interface|type|enum)\s+\w+`)
	insideDecl = regexp.MustCompile(`^[\w'"\[\]?]+\s*[:=]|^\|`)

	namedExport    = regexp.MustCompile(`^\s*export\s+(?:async\s+)?(?:const|let|var|function\s*\*?|class|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	defaultExport  = regexp.MustCompile(`^\s*export\s+default\s+(?:async\s+)?(?:function\s*\*?|class)\s+([A-Za-z_$][\w$]*)`)
	reExport       = regexp.MustCompile(`^\s*export\s*\{([^}]*)\}`)
	importStmt     = regexp.MustCompile(`^\s*import\s+(.+?)\s+from\s+['"]([^'"]+)['"]`)
	importBare     = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	httpMethodDecl = regexp.MustCompile(`export\s+(?:async\s+)?function\s+(GET|POST|PUT|PATCH|DELETE)\s*\(`)
	routerCall     = regexp.MustCompile(`\b(?:app|router)\.(get|post|put|patch|delete)\s*\(\s*['"]([^'"]+)['"]`)
)

// ExtractExports scans declaration and export statements for exported
// symbol names: named exports, default exports that carry a name, and
// re-export lists.
func ExtractExports(content string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := defaultExport.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := namedExport.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := reExport.FindStringSubmatch(line); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				// "a as b" re-exports under the name b.
				if idx := strings.Index(part, " as "); idx >= 0 {
					part = part[idx+4:]
				}
				add(part)
			}
		}
	}
	return out
}

// ExtractImports scans import statements, splitting relative imports from
// external package imports.
func ExtractImports(content string) []Import {
	var out []Import
	for _, line := range strings.Split(content, "\n") {
		if m := importStmt.FindStringSubmatch(line); m != nil {
			out = append(out, Import{
				Symbols:  splitImportClause(m[1]),
				Source:   m[2],
				Relative: isRelative(m[2]),
			})
			continue
		}
		if m := importBare.FindStringSubmatch(line); m != nil {
			out = append(out, Import{Source: m[1], Relative: isRelative(m[1])})
		}
	}
	return out
}

// splitImportClause handles "Default", "{ a, b as c }", "* as ns", and
// combinations like "Default, { a }".
func splitImportClause(clause string) []string {
	var out []string
	clause = strings.TrimSpace(clause)

	if idx := strings.Index(clause, "{"); idx >= 0 {
		before := strings.TrimSuffix(strings.TrimSpace(clause[:idx]), ",")
		if before != "" {
			out = append(out, strings.TrimSpace(before))
		}
		inner := clause[idx+1:]
		if end := strings.Index(inner, "}"); end >= 0 {
			inner = inner[:end]
		}
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = part[idx+4:]
			}
			if part != "" {
				out = append(out, strings.TrimSpace(part))
			}
		}
		return out
	}

	if strings.HasPrefix(clause, "*") {
		if idx := strings.Index(clause, " as "); idx >= 0 {
			return []string{strings.TrimSpace(clause[idx+4:])}
		}
		return []string{"*"}
	}

	if clause != "" {
		out = append(out, clause)
	}
	return out
}

func isRelative(source string) bool {
	return strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/")
}

// authMarkers are content signatures implying the endpoint checks a session
// or credential before serving.
var authMarkers = []string{
	"getSession(", "getServerSession(", "requireAuth", "verifyToken",
	"req.headers.authorization", "Authorization", "auth()",
}

// ExtractContracts returns one APIContract per recognized HTTP method in an
// api-classified file. The endpoint is taken from router-style route
// literals when present, otherwise derived from the file path.
func ExtractContracts(p, content string) []APIContract {
	auth := false
	for _, m := range authMarkers {
		if strings.Contains(content, m) {
			auth = true
			break
		}
	}

	var out []APIContract
	seen := make(map[string]bool)

	for _, m := range routerCall.FindAllStringSubmatch(content, -1) {
		method := strings.ToUpper(m[1])
		key := method + " " + m[2]
		if !seen[key] {
			seen[key] = true
			out = append(out, APIContract{Endpoint: m[2], Method: method, RequiresAuth: auth})
		}
	}

	endpoint := endpointFromPath(p)
	for _, m := range httpMethodDecl.FindAllStringSubmatch(content, -1) {
		key := m[1] + " " + endpoint
		if !seen[key] {
			seen[key] = true
			out = append(out, APIContract{Endpoint: endpoint, Method: m[1], RequiresAuth: auth})
		}
	}
	return out
}

// endpointFromPath converts a route file path into its URL, e.g.
// "app/api/users/route.ts" → "/api/users".
func endpointFromPath(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimSuffix(p, "/route")
	p = strings.TrimSuffix(p, "/index")
	if idx := strings.Index(p, "api/"); idx >= 0 {
		p = p[idx:]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// String renders a contract in the compact form used in generation context.
func (c APIContract) String() string {
	s := fmt.Sprintf("%s %s", c.Method, c.Endpoint)
	if c.RequiresAuth {
		s += " (auth)"
	}
	return s
}

func summarize(f AccumulatedFile) string {
	switch {
	case len(f.Exports) > 0:
		return fmt.Sprintf("%s file exporting %s", f.Type, strings.Join(f.Exports, ", "))
	case f.Type == FileStyle:
		return "stylesheet"
	case f.Type == FileConfig:
		return "configuration file"
	default:
		return string(f.Type) + " file"
	}
}
