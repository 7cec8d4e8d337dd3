// Package artifact persists fitted objects as zstd-compressed JSON.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"genrecast/internal/faults"
	"genrecast/internal/fileutil"
)

const component = "artifact"

// Save encodes v and writes it to path atomically, creating parent
// directories.
func Save(path string, v any) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := json.NewEncoder(enc).Encode(v); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return faults.Wrap(faults.ErrModel, component, "save", fmt.Sprintf("Unable to write %s", path), err)
	}
	return nil
}

// pendingSuffix marks an artifact written by SaveSet but not yet committed.
const pendingSuffix = ".pending"

// Entry is one member of an artifact set.
type Entry struct {
	Path  string
	Value any
}

// SaveSet persists artifacts that are only valid together. Every entry is
// first written beside its final path; the final paths are replaced only
// after all of them were written, so a failure leaves the previous set
// untouched.
func SaveSet(entries ...Entry) error {
	staged := make([]string, 0, len(entries))
	discard := func(paths []string) {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}
	for _, e := range entries {
		pending := e.Path + pendingSuffix
		if err := Save(pending, e.Value); err != nil {
			discard(staged)
			_ = os.Remove(pending)
			return err
		}
		staged = append(staged, pending)
	}
	for i, e := range entries {
		if err := os.Rename(staged[i], e.Path); err != nil {
			discard(staged[i:])
			return faults.Wrap(faults.ErrModel, component, "commit", fmt.Sprintf("Unable to install %s", e.Path), err)
		}
	}
	return nil
}

// Load decodes the artifact at path into v. A missing file reports
// faults.ErrArtifactMissing; an unreadable payload reports faults.ErrModel.
func Load(path string, v any) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return faults.Wrap(faults.ErrArtifactMissing, component, "load", fmt.Sprintf("%s not found; run training first", path), err)
	}
	if err != nil {
		return faults.Wrap(faults.ErrModel, component, "load", fmt.Sprintf("Unable to open %s", path), err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return faults.Wrap(faults.ErrModel, component, "load", fmt.Sprintf("Unable to read %s", path), err)
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(v); err != nil {
		return faults.Wrap(faults.ErrModel, component, "decode", fmt.Sprintf("Corrupt artifact %s", path), err)
	}
	return nil
}

// Exists reports whether an artifact file is present at path.
func Exists(path string) bool {
	return fileutil.Exists(path)
}
