package ledger

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stackweaver/stackweaver/internal/analyze"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	files, err := s.Files(ctx)
	if err != nil {
		t.Fatalf("Files on fresh store: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("fresh store has %d files", len(files))
	}
	contracts, err := s.Contracts(ctx)
	if err != nil {
		t.Fatalf("Contracts on fresh store: %v", err)
	}
	if len(contracts) != 0 {
		t.Errorf("fresh store has %d contracts", len(contracts))
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s.RecordFiles(ctx, 1, []analyze.AccumulatedFile{{Path: "src/app.ts", Type: analyze.FileComponent}}); err != nil {
		t.Fatalf("RecordFiles: %v", err)
	}
	s.Close()

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	files, err := s2.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].Path != "src/app.ts" {
		t.Errorf("files after reopen = %+v, want recorded row intact", files)
	}
}

func TestRecordFiles_Upsert(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first := []analyze.AccumulatedFile{
		{Path: "src/api/tasks/route.ts", Type: analyze.FileAPI, Exports: []string{"GET", "POST"}, Summary: "api (exports: GET, POST)"},
		{Path: "src/components/TaskList.tsx", Type: analyze.FileComponent, Exports: []string{"TaskList"}},
	}
	if err := s.RecordFiles(ctx, 2, first); err != nil {
		t.Fatalf("RecordFiles: %v", err)
	}

	// A later phase regenerates one of the files with new exports.
	update := []analyze.AccumulatedFile{
		{Path: "src/components/TaskList.tsx", Type: analyze.FileComponent, Exports: []string{"TaskList", "TaskRow"}},
	}
	if err := s.RecordFiles(ctx, 3, update); err != nil {
		t.Fatalf("RecordFiles update: %v", err)
	}

	files, err := s.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("rows = %d, want 2 (upsert, not insert)", len(files))
	}
	// Ordered by path.
	if files[0].Path != "src/api/tasks/route.ts" || files[1].Path != "src/components/TaskList.tsx" {
		t.Errorf("order = [%s, %s]", files[0].Path, files[1].Path)
	}
	got := files[1]
	if got.Exports != "TaskList,TaskRow" {
		t.Errorf("Exports = %q, want updated list", got.Exports)
	}
	if got.Phase != 3 {
		t.Errorf("Phase = %d, want 3 after update", got.Phase)
	}
	if files[0].Phase != 2 {
		t.Errorf("untouched row phase = %d, want 2", files[0].Phase)
	}
}

func TestRecordFiles_Empty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	if err := s.RecordFiles(context.Background(), 1, nil); err != nil {
		t.Errorf("RecordFiles(nil) = %v, want nil", err)
	}
}

func TestRecordContracts_Upsert(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first := []analyze.APIContract{
		{Endpoint: "/api/tasks", Method: "GET", RequiresAuth: false},
		{Endpoint: "/api/tasks", Method: "POST", RequiresAuth: true},
	}
	if err := s.RecordContracts(ctx, 2, first); err != nil {
		t.Fatalf("RecordContracts: %v", err)
	}

	// The same endpoint re-recorded with auth added.
	update := []analyze.APIContract{
		{Endpoint: "/api/tasks", Method: "GET", RequiresAuth: true},
	}
	if err := s.RecordContracts(ctx, 4, update); err != nil {
		t.Fatalf("RecordContracts update: %v", err)
	}

	contracts, err := s.Contracts(ctx)
	if err != nil {
		t.Fatalf("Contracts: %v", err)
	}
	if len(contracts) != 2 {
		t.Fatalf("rows = %d, want 2 (unique on endpoint+method)", len(contracts))
	}
	// Ordered by endpoint then method.
	if contracts[0].Method != "GET" || contracts[1].Method != "POST" {
		t.Errorf("order = [%s, %s], want [GET, POST]", contracts[0].Method, contracts[1].Method)
	}
	if !contracts[0].RequiresAuth || contracts[0].Phase != 4 {
		t.Errorf("updated contract = %+v, want auth required from phase 4", contracts[0])
	}
}

func TestFileByPath(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordFiles(ctx, 1, []analyze.AccumulatedFile{
		{Path: "src/lib/format.ts", Type: analyze.FileUtil, Exports: []string{"formatDate"}, Summary: "util (exports: formatDate)"},
	}); err != nil {
		t.Fatalf("RecordFiles: %v", err)
	}

	e, err := s.FileByPath(ctx, "src/lib/format.ts")
	if err != nil {
		t.Fatalf("FileByPath: %v", err)
	}
	if e.Type != "util" || e.Exports != "formatDate" || e.Phase != 1 {
		t.Errorf("entry = %+v", e)
	}

	_, err = s.FileByPath(ctx, "src/missing.ts")
	if err == nil || !strings.Contains(err.Error(), "not recorded") {
		t.Errorf("err = %v, want not-recorded error", err)
	}
}
