package moose

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bodgit/moose/legacy"
)

const defaultWorkers = 4

// ImportOptions controls reading and storing a dump.
type ImportOptions struct {
	// Number of records decoded concurrently
	Workers int
	// Decode legacy images the way the old site did
	Compat bool
	// What to do with a name already in the database
	Dupe DupeMode
}

type rawRecord struct {
	index int
	data  json.RawMessage
}

type decoded struct {
	index int
	moose *Moose
}

type workerResult struct {
	meese   []decoded
	skipped int
}

// decodeRecord accepts either a current moose or a legacy record, which is
// told apart by the lack of dimensions.
func decodeRecord(data []byte, opts ...legacy.Option) (*Moose, error) {
	var probe struct {
		Dimensions json.RawMessage `json:"dimensions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	if probe.Dimensions != nil {
		m := new(Moose)
		if err := json.Unmarshal(data, m); err != nil {
			return nil, err
		}
		return m, nil
	}

	var r legacy.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return FromLegacy(&r, opts...)
}

func readRecords(ctx context.Context, r io.Reader) (<-chan rawRecord, <-chan error, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	if t, err := dec.Token(); err != nil {
		return nil, nil, err
	} else if t != json.Delim('[') {
		return nil, nil, errors.New("moose: expected a JSON array")
	}

	out := make(chan rawRecord)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := 0; dec.More(); i++ {
			var data json.RawMessage
			if err := dec.Decode(&data); err != nil {
				errc <- fmt.Errorf("moose: record %d: %w", i, err)
				return
			}

			select {
			case out <- rawRecord{i, data}:
			case <-ctx.Done():
				errc <- errors.New("read cancelled")
				return
			}
		}
		if _, err := dec.Token(); err != nil {
			errc <- err
		}
	}()
	return out, errc, nil
}

func decodeWorker(ctx context.Context, in <-chan rawRecord, logger *log.Logger, opts ...legacy.Option) (<-chan workerResult, <-chan error, error) {
	out := make(chan workerResult, 1)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		var result workerResult
		for rec := range in {
			if ctx.Err() != nil {
				errc <- errors.New("decode cancelled")
				return
			}

			m, err := decodeRecord(rec.data, opts...)
			if err != nil {
				logger.Printf("Skipping record %d: %v\n", rec.index, err)
				result.skipped++
				continue
			}
			result.meese = append(result.meese, decoded{rec.index, m})
		}
		out <- result
	}()
	return out, errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ReadHerd decodes a JSON array of moose in either the current or legacy
// format. Records that fail to decode are logged and counted as skipped.
// The moose are returned oldest first.
func ReadHerd(ctx context.Context, r io.Reader, logger *log.Logger, opts ImportOptions) ([]*Moose, int, error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	records, errc, err := readRecords(ctx, r)
	if err != nil {
		return nil, 0, err
	}
	errcList = append(errcList, errc)

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	var results []<-chan workerResult
	for i := 0; i < workers; i++ {
		out, errc, err := decodeWorker(ctx, records, logger, legacy.Compat(opts.Compat))
		if err != nil {
			return nil, 0, err
		}
		results = append(results, out)
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, 0, err
	}

	var (
		all     []decoded
		skipped int
	)
	for _, out := range results {
		for result := range out {
			all = append(all, result.meese...)
			skipped += result.skipped
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].moose.Created.Equal(all[j].moose.Created) {
			return all[i].moose.Created.Before(all[j].moose.Created)
		}
		return all[i].index < all[j].index
	})

	meese := make([]*Moose, len(all))
	for i, d := range all {
		meese[i] = d.moose
	}

	return meese, skipped, nil
}

// WriteHerd writes meese as a JSON array.
func WriteHerd(w io.Writer, meese []*Moose) error {
	return writeArray(w, func(fn func(*Moose) error) error {
		for _, m := range meese {
			if err := fn(m); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeArray(w io.Writer, each func(func(*Moose) error) error) error {
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte('['); err != nil {
		return err
	}

	first := true
	if err := each(func(m *Moose) error {
		if !first {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		first = false

		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		_, err = bw.Write(b)
		return err
	}); err != nil {
		return err
	}

	if err := bw.WriteByte(']'); err != nil {
		return err
	}
	return bw.Flush()
}

// Import reads a dump with ReadHerd and stores every moose. It returns the
// number of moose read and the number skipped.
func (h *Herd) Import(ctx context.Context, r io.Reader, opts ImportOptions) (int, int, error) {
	meese, skipped, err := ReadHerd(ctx, r, h.logger, opts)
	if err != nil {
		return 0, 0, err
	}

	if err := h.db.BulkInsert(meese, opts.Dupe); err != nil {
		return 0, 0, err
	}

	if len(meese) > 0 {
		atomic.StoreInt32(&h.changed, 1)
	}
	h.logger.Printf("Imported %d moose, skipped %d\n", len(meese), skipped)

	return len(meese), skipped, nil
}
