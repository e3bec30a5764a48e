// Package backup writes the plaintext snapshots taken before every journal
// overwrite and optionally mirrors them to S3.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/filex"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/metrics"
	"github.com/samber/lo"
)

// TimeLayout is the timestamp embedded in backup file names.
const TimeLayout = "2006-01-02_15-04-05"

const (
	maxSameSecond = 1000
	mirrorTimeout = 30 * time.Second
)

var nameRe = regexp.MustCompile(`^backup_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})(?:_(\d+))?\.json$`)

// Mirror copies a freshly written backup somewhere off the machine.
type Mirror interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// Info describes one backup file.
type Info struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
	Size int64     `json:"size"`
	seq  int
}

type Manager struct {
	dir    string
	log    logging.Logger
	mirror Mirror
	rec    metrics.Recorder
	now    func() time.Time

	uploads sync.WaitGroup
}

type Option func(*Manager)

func WithMirror(m Mirror) Option { return func(b *Manager) { b.mirror = m } }

func WithRecorder(r metrics.Recorder) Option { return func(b *Manager) { b.rec = r } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(b *Manager) { b.now = now } }

func NewManager(dir string, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		dir: dir,
		log: log,
		rec: (*metrics.Metrics)(nil),
		now: time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Dir() string { return m.dir }

// Write stores snapshot as backup_<UTC timestamp>.json in the backup
// directory, creating it if needed, and returns the file path. Valid JSON is
// re-indented; anything else is kept byte for byte. When another backup
// already holds the same second, a _N suffix is appended.
//
// Failures are wrapped in common.ErrBackup. The mirror upload runs in the
// background after Write returns; its failures are only logged. Use Wait to
// let pending uploads finish.
func (m *Manager) Write(ctx context.Context, snapshot []byte) (path string, err error) {
	defer func() { m.rec.ObserveBackup(err) }()

	data := snapshot
	var buf bytes.Buffer
	if json.Indent(&buf, snapshot, "", "    ") == nil {
		data = buf.Bytes()
	}

	if err := filex.EnsureDir(m.dir); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrBackup, err)
	}

	stamp := m.now().UTC().Format(TimeLayout)
	for n := 0; n < maxSameSecond; n++ {
		name := "backup_" + stamp + ".json"
		if n > 0 {
			name = "backup_" + stamp + "_" + strconv.Itoa(n) + ".json"
		}
		path = filepath.Join(m.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: create %s: %v", common.ErrBackup, path, err)
		}

		if err := writeAndClose(f, data); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("%w: write %s: %v", common.ErrBackup, path, err)
		}

		m.log.Info(ctx, "backup written", "path", path, "bytes", len(data))
		m.upload(ctx, name, data)
		return path, nil
	}

	return "", fmt.Errorf("%w: too many backups within %s", common.ErrBackup, stamp)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (m *Manager) upload(ctx context.Context, name string, data []byte) {
	if m.mirror == nil {
		return
	}
	data = bytes.Clone(data)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)

	m.uploads.Add(1)
	go func() {
		defer m.uploads.Done()
		defer cancel()

		err := m.mirror.Upload(ctx, name, data)
		m.rec.ObserveMirrorUpload(err)
		if err != nil {
			m.log.Warn(ctx, "backup mirror upload failed", "name", name, "error", err)
			return
		}
		m.log.Debug(ctx, "backup mirrored", "name", name)
	}()
}

// Wait blocks until every started mirror upload has finished or timed out.
func (m *Manager) Wait() {
	m.uploads.Wait()
}

// List returns the backups in the directory, newest first. A missing
// directory yields an empty list.
func (m *Manager) List() ([]Info, error) {
	des, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read backup dir: %v", common.ErrIO, err)
	}

	infos := lo.FilterMap(des, func(de os.DirEntry, _ int) (Info, bool) {
		if de.IsDir() {
			return Info{}, false
		}
		return parseName(de)
	})

	slices.SortFunc(infos, func(a, b Info) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		return b.seq - a.seq
	})
	return infos, nil
}

func parseName(de os.DirEntry) (Info, bool) {
	match := nameRe.FindStringSubmatch(de.Name())
	if match == nil {
		return Info{}, false
	}
	ts, err := time.Parse(TimeLayout, match[1])
	if err != nil {
		return Info{}, false
	}
	seq := 0
	if match[2] != "" {
		seq, _ = strconv.Atoi(match[2])
	}

	info := Info{Name: de.Name(), Time: ts, seq: seq}
	if fi, err := de.Info(); err == nil {
		info.Size = fi.Size()
	}
	return info, true
}

// Read returns the content of the named backup. Names are resolved inside
// the backup directory only.
func (m *Manager) Read(name string) ([]byte, error) {
	if !nameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: backup %q", common.ErrorNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: backup %q", common.ErrorNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	return data, nil
}
