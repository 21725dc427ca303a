// Package snapshot writes and reads compressed save files. A file is a zstd
// stream holding one JSON header line followed by the gob-encoded world state,
// so tools can identify a save by decompressing only its first line.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/lifegrid/internal/world"
)

// Version is the current file format version.
const Version = 1

// Ext is the file extension of snapshot files.
const Ext = ".snap.zst"

// ErrVersion is returned for files written by an unknown format version.
var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version   int    `json:"version"`
	RunID     string `json:"run_id"`
	Turn      uint64 `json:"turn"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Organisms int    `json:"organisms"`
}

type snapshotV1 struct {
	Header Header
	State  world.State
}

// Write stores st at path, replacing any existing file once the new one is
// complete.
func Write(path string, st world.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, st); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func encode(f *os.File, st world.State) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	snap := snapshotV1{
		Header: Header{
			Version:   Version,
			RunID:     st.ID,
			Turn:      st.Turn,
			Width:     st.Width,
			Height:    st.Height,
			Organisms: len(st.Organisms),
		},
		State: st,
	}
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads the world state stored at path.
func Read(path string) (world.State, error) {
	var snap snapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap.State, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap.State, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	h, err := readHeader(br)
	if err != nil {
		return snap.State, fmt.Errorf("%s: %w", path, err)
	}
	if h.Version != Version {
		return snap.State, fmt.Errorf("%s: version %d: %w", path, h.Version, ErrVersion)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap.State, fmt.Errorf("gob decode: %w", err)
	}
	return snap.State, nil
}

// ReadHeader returns only the header of the file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()
	return readHeader(bufio.NewReader(dec))
}

func readHeader(br *bufio.Reader) (Header, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// Path returns the file name used for a save of run at turn.
func Path(dir, runID string, turn uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%010d%s", runID, turn, Ext))
}

// Entry is a snapshot file found by List.
type Entry struct {
	Path   string
	Size   int64
	Header Header
}

// List returns the snapshots in dir, latest turn last. Files whose header
// cannot be read are skipped. A missing directory yields no entries.
func List(dir string) ([]Entry, error) {
	names, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, de := range names {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Ext) {
			continue
		}
		path := filepath.Join(dir, de.Name())
		h, err := ReadHeader(path)
		if err != nil {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Path: path, Size: info.Size(), Header: h})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Header.Turn != out[j].Header.Turn {
			return out[i].Header.Turn < out[j].Header.Turn
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Latest returns the snapshot in dir with the highest turn.
func Latest(dir string) (Entry, bool, error) {
	entries, err := List(dir)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[len(entries)-1], true, nil
}
