package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set to "1".
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// FixturePath resolves name inside this package's testdata directory, so
// fixtures are shared by every package under test regardless of its working
// directory.
func FixturePath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

// GoldenPath constructs a path to a golden file under the caller's testdata.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name)
}

// LoadFixture reads a shared fixture.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(FixturePath(name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

// LoadRecords decodes a JSON array fixture of entity records, e.g.
// LoadRecords[*entity.Campaign](t, "campaigns.json").
func LoadRecords[T any](t testing.TB, name string) []T {
	t.Helper()

	var out []T
	if err := json.Unmarshal(LoadFixture(t, name), &out); err != nil {
		t.Fatalf("failed to decode fixture %s: %v", name, err)
	}
	return out
}

// CompareGolden compares actual with the golden file at path. A missing file
// is created, as is every file when UPDATE_GOLDEN=1.
func CompareGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) || os.Getenv(UpdateGoldenEnv) == "1" {
		writeGolden(t, path, actual)
		return
	}
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if !bytes.Equal(actual, expected) {
		t.Errorf("output mismatch for %s:\nexpected:\n%s\nactual:\n%s", path, expected, actual)
	}
}

// CompareGoldenJSON is CompareGolden over indented JSON of v.
func CompareGoldenJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	CompareGolden(t, path, append(data, '\n'))
}

func writeGolden(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write golden file %s: %v", path, err)
	}
}

// SQLiteDSN returns a DSN for a fresh database file that is removed with the
// test.
func SQLiteDSN(t testing.TB) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "campaigns.db") + "?cache=shared&_foreign_keys=on"
}
