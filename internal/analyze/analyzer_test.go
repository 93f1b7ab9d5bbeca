package analyze

import (
	"reflect"
	"testing"

	"github.com/stackweaver/stackweaver/internal/generate"
)

func TestClassifyFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		content string
		want    FileType
	}{
		{"api route dir", "app/api/users/route.ts", "export async function GET() {}", FileAPI},
		{"routes dir", "src/routes/users.ts", "router.get('/users', handler)", FileAPI},
		{"server dir", "server/index.ts", "app.listen(3000)", FileAPI},
		{"stylesheet", "src/styles/app.css", ".btn { color: red; }", FileStyle},
		{"config by name", "package.json", "{}", FileConfig},
		{"config by infix", "vitest.config.ts", "export default {}", FileConfig},
		{"declaration file", "src/global.d.ts", "declare module 'x';", FileTypeDecl},
		{"types dir", "src/types/task.ts", "export interface Task { id: string }", FileTypeDecl},
		{"declaration-only content", "src/models.ts", "export interface A {\n  id: string;\n}\nexport type B = A;", FileTypeDecl},
		{"utils dir", "src/utils/format.ts", "export function fmt() {}", FileUtil},
		{"lib dir", "src/lib/api.ts", "export const client = {};", FileUtil},
		{"tsx component", "src/components/Button.tsx", "export function Button() {}", FileComponent},
		{"pages dir", "src/pages/home.js", "export default function Home() {}", FileComponent},
		{"fallback", "scripts/seed.js", "console.log('seed');", FileOther},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyFile(tt.path, tt.content); got != tt.want {
				t.Errorf("ClassifyFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractExports(t *testing.T) {
	t.Parallel()

	content := `
import React from 'react';

export const limit = 10;
export function fetchTasks() {}
export default class TaskStore {}
export interface Task { id: string }
export type TaskID = string;
const internal = 1;
export { internal as exposed, limit };
`
	got := ExtractExports(content)
	want := []string{"limit", "fetchTasks", "TaskStore", "Task", "TaskID", "exposed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("exports = %v, want %v", got, want)
	}
}

func TestExtractExports_NoDuplicates(t *testing.T) {
	t.Parallel()
	content := "export const x = 1;\nexport { x };\n"
	got := ExtractExports(content)
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("exports = %v, want [x]", got)
	}
}

func TestExtractImports(t *testing.T) {
	t.Parallel()

	content := `
import React, { useState } from 'react';
import { fetchTasks as load } from './api';
import * as utils from '../utils/format';
import './styles.css';
`
	got := ExtractImports(content)
	if len(got) != 4 {
		t.Fatalf("got %d imports, want 4", len(got))
	}

	if got[0].Source != "react" || got[0].Relative {
		t.Errorf("import 0 = %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Symbols, []string{"React", "useState"}) {
		t.Errorf("import 0 symbols = %v", got[0].Symbols)
	}

	if !got[1].Relative || !reflect.DeepEqual(got[1].Symbols, []string{"load"}) {
		t.Errorf("import 1 = %+v", got[1])
	}

	if !reflect.DeepEqual(got[2].Symbols, []string{"utils"}) {
		t.Errorf("import 2 symbols = %v", got[2].Symbols)
	}

	if got[3].Source != "./styles.css" || len(got[3].Symbols) != 0 {
		t.Errorf("bare import = %+v", got[3])
	}
}

func TestExtractContracts_MethodDecls(t *testing.T) {
	t.Parallel()

	content := `
import { getServerSession } from 'next-auth';

export async function GET(req) { return list(); }
export async function POST(req) { return create(); }
`
	got := ExtractContracts("app/api/tasks/route.ts", content)
	if len(got) != 2 {
		t.Fatalf("got %d contracts, want 2", len(got))
	}
	if got[0].Endpoint != "/api/tasks" || got[0].Method != "GET" {
		t.Errorf("contract 0 = %+v", got[0])
	}
	if !got[0].RequiresAuth {
		t.Error("session-checking route should require auth")
	}
	if got[0].String() != "GET /api/tasks (auth)" {
		t.Errorf("String() = %q", got[0].String())
	}
}

func TestExtractContracts_RouterCalls(t *testing.T) {
	t.Parallel()

	content := `
router.get('/tasks', listTasks);
router.post('/tasks', createTask);
router.get('/tasks', duplicateRegistration);
`
	got := ExtractContracts("server/routes.ts", content)
	if len(got) != 2 {
		t.Fatalf("got %d contracts, want 2 (duplicates collapsed)", len(got))
	}
	if got[0].Method != "GET" || got[0].Endpoint != "/tasks" {
		t.Errorf("contract 0 = %+v", got[0])
	}
	if got[0].RequiresAuth {
		t.Error("no auth markers present; RequiresAuth should be false")
	}
}

func TestAnalyze_Patterns(t *testing.T) {
	t.Parallel()

	files := []generate.GeneratedFile{
		{Path: "src/components/A.tsx", Content: "const [n, setN] = useState(0);"},
		{Path: "src/components/B.tsx", Content: "const [m, setM] = useState(1);"},
		{Path: "src/lib/api.ts", Content: "const res = await fetch('/api/tasks');"},
	}

	a := New()
	got := a.Analyze(files)

	want := []string{"state:react-hooks", "data:fetch"}
	if !reflect.DeepEqual(got.Patterns, want) {
		t.Errorf("patterns = %v, want %v (deduplicated, detection order)", got.Patterns, want)
	}
}

func TestAnalyze_FileSummaries(t *testing.T) {
	t.Parallel()

	a := New()
	got := a.Analyze([]generate.GeneratedFile{
		{Path: "src/lib/api.ts", Content: "export const client = {};\nexport function get() {}"},
	})

	if len(got.Files) != 1 {
		t.Fatalf("got %d files", len(got.Files))
	}
	f := got.Files[0]
	if f.Summary == "" {
		t.Error("summary should not be empty")
	}
	if !reflect.DeepEqual(f.Exports, []string{"client", "get"}) {
		t.Errorf("exports = %v", f.Exports)
	}
}
