// Package analyze extracts structure from generated code: file types,
// exported symbols, import statements, API contracts, and established coding
// patterns. Its output feeds the accumulated build state that keeps later
// phases consistent with earlier ones.
package analyze

// FileType classifies a generated file by its role in the application.
type FileType string

const (
	FileComponent FileType = "component"
	FileAPI       FileType = "api"
	FileTypeDecl  FileType = "type"
	FileUtil      FileType = "util"
	FileStyle     FileType = "style"
	FileConfig    FileType = "config"
	FileOther     FileType = "other"
)

// Import is one import statement split into its symbols and source.
type Import struct {
	Symbols  []string
	Source   string
	Relative bool
}

// AccumulatedFile is the latest known state of one generated file.
type AccumulatedFile struct {
	Path    string
	Type    FileType
	Content string
	Exports []string
	Imports []Import
	Summary string
}

// APIContract records an endpoint inferred from a server-side file.
type APIContract struct {
	Endpoint       string
	Method         string
	RequestSchema  string
	ResponseSchema string
	RequiresAuth   bool
}

// Analysis is the result of analyzing one batch of generated files.
type Analysis struct {
	Files     []AccumulatedFile
	Contracts []APIContract
	Patterns  []string // Detected idioms, e.g. "state:react-hooks".
}
