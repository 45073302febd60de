package uploads

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"wastereport/internal/ids"
)

// Photo is an uploaded file handle as received from the transport.
type Photo struct {
	Filename    string
	ContentType string
	// Size is -1 when unknown.
	Size int64
	Body io.Reader
}

var (
	ErrEmptyPhoto = errors.New("uploads: photo has no filename")
	ErrTooLarge   = errors.New("uploads: photo exceeds size limit")
)

// ObjectName builds the stored name: unix seconds, a ULID, then the original
// base name with spaces replaced by underscores. The ULID keeps same-second
// uploads of the same file name apart.
func ObjectName(now time.Time, filename string) string {
	return fmt.Sprintf("%d_%s_%s", now.Unix(), ids.NewAt(now), sanitize(filename))
}

func sanitize(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == ".." {
		return "photo"
	}
	return name
}

// limitBody caps r at max bytes and reports overflow as ErrTooLarge.
type limitBody struct {
	r   io.Reader
	n   int64
	max int64
}

func newLimitBody(r io.Reader, max int64) *limitBody {
	return &limitBody{r: r, max: max}
}

func (l *limitBody) Read(p []byte) (int, error) {
	if l.max <= 0 {
		return l.r.Read(p)
	}
	if l.n > l.max {
		return 0, ErrTooLarge
	}
	if room := l.max + 1 - l.n; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, ErrTooLarge
	}
	return n, err
}
