package moose

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// DefaultDumpInterval is how often RunDumper checks for new moose.
const DefaultDumpInterval = 5 * time.Minute

// Dump writes every moose to file as a JSON array. The file is replaced
// atomically so readers never see a partial dump.
func (h *Herd) Dump(file string) (err error) {
	dir := filepath.Dir(file)
	if file == "" || filepath.Base(file) == string(filepath.Separator) {
		return errors.New("moose: bad dump path")
	}

	f, err := ioutil.TempFile(dir, ".moose.json.")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = writeArray(f, h.db.Each); err != nil {
		return err
	}

	if err = f.Sync(); err != nil {
		return err
	}

	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), file)
}

// RunDumper dumps to file every interval if any moose have been added
// since the last dump. It returns when ctx is cancelled or a dump fails.
func (h *Herd) RunDumper(ctx context.Context, file string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultDumpInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&h.changed, 1, 0) {
				continue
			}
			h.logger.Printf("Dumping moose to %s\n", file)
			if err := h.Dump(file); err != nil {
				atomic.StoreInt32(&h.changed, 1)
				return err
			}
		}
	}
}
