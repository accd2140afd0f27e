package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"galaxytrade/internal/sim/economy"
)

// ListEventFiles returns the events-*.jsonl.zst files in dir, oldest first.
func ListEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadTickFile decodes every entry in one compressed tick log, calling fn in
// file order. Returning an error from fn stops the scan.
func ReadTickFile(path string, fn func(economy.TickLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var entry economy.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}

// HasEventFiles reports whether runDir already holds a tick log. A missing
// directory counts as empty.
func HasEventFiles(runDir string) (bool, error) {
	files, err := ListEventFiles(EventsDir(runDir))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}
