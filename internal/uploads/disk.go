package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DiskSink stores photos in a local directory served under PublicPrefix.
type DiskSink struct {
	Dir          string
	PublicPrefix string
	MaxBytes     int64

	clock func() time.Time
}

func NewDiskSink(dir, publicPrefix string, maxBytes int64) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskSink{Dir: dir, PublicPrefix: publicPrefix, MaxBytes: maxBytes, clock: time.Now}, nil
}

func (d *DiskSink) Store(ctx context.Context, p Photo) (string, error) {
	if p.Filename == "" || p.Body == nil {
		return "", ErrEmptyPhoto
	}
	name := ObjectName(d.clock().UTC(), p.Filename)
	dst := filepath.Join(d.Dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, newLimitBody(p.Body, d.MaxBytes)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return path.Join("/", d.PublicPrefix, name), nil
}

// Remove deletes a file previously returned by Store. Missing files are not an error.
func (d *DiskSink) Remove(ctx context.Context, url string) error {
	name := path.Base(url)
	if name == "/" || name == "." || name == ".." {
		return nil
	}
	if err := os.Remove(filepath.Join(d.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
