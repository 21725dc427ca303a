package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/lifegrid/internal/species"
	"github.com/talgya/lifegrid/internal/world"
)

func testState(t *testing.T, turns int) (world.State, *world.World) {
	t.Helper()
	catalog, population, err := species.Default()
	if err != nil {
		t.Fatal(err)
	}
	w, err := world.New(world.Config{
		Width: 10, Height: 10, Seed: 77,
		Rules: world.DefaultRules(), Population: population,
	}, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.GenerateOrganisms(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < turns; i++ {
		if err := w.Simulate(); err != nil {
			t.Fatal(err)
		}
	}
	st, err := w.State()
	if err != nil {
		t.Fatal(err)
	}
	return st, w
}

func TestWriteReadRoundTrip(t *testing.T) {
	st, w := testState(t, 6)
	path := filepath.Join(t.TempDir(), "nested", "save"+Ext)

	if err := Write(path, st); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(st, got) {
		t.Fatal("read state differs from written state")
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	want := Header{Version: Version, RunID: w.ID(), Turn: 6, Width: 10, Height: 10, Organisms: len(st.Organisms)}
	if h != want {
		t.Fatalf("header = %+v, want %+v", h, want)
	}
}

func TestWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quick"+Ext)
	first, _ := testState(t, 1)
	second, _ := testState(t, 3)

	if err := Write(path, first); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, second); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Turn != 3 {
		t.Fatalf("turn = %d, want 3", got.Turn)
	}

	files, _ := os.ReadDir(dir)
	if len(files) != 1 {
		t.Fatalf("%d files left in dir, want 1", len(files))
	}
}

func TestReadRejectsOtherVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future"+Ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	enc.Write([]byte(`{"version":99}` + "\n"))
	enc.Close()
	f.Close()

	if _, err := Read(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}

func TestReadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk"+Ext)
	if err := os.WriteFile(path, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestListAndLatest(t *testing.T) {
	dir := t.TempDir()

	if _, ok, err := Latest(filepath.Join(dir, "missing")); ok || err != nil {
		t.Fatalf("missing dir: ok=%v err=%v", ok, err)
	}

	for _, turns := range []int{4, 1, 2} {
		st, _ := testState(t, turns)
		if err := Write(Path(dir, "run", st.Turn), st); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var turns []uint64
	for _, e := range entries {
		turns = append(turns, e.Header.Turn)
		if e.Size <= 0 {
			t.Fatalf("%s has size %d", e.Path, e.Size)
		}
	}
	if !reflect.DeepEqual(turns, []uint64{1, 2, 4}) {
		t.Fatalf("turns = %v", turns)
	}

	latest, ok, err := Latest(dir)
	if err != nil || !ok || latest.Header.Turn != 4 {
		t.Fatalf("Latest = %+v, %v, %v", latest, ok, err)
	}
}
