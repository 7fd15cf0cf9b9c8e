package session

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

const dumpTimeLayout = "20060102-150405.000"

// dumper writes every response of a session to a directory, one file per
// response, for debugging site automations.
type dumper struct {
	dir string
	seq atomic.Int64
	log *logger.Logger
}

func newDumper(dir string, log *logger.Logger) (*dumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	return &dumper{dir: dir, log: log}, nil
}

func (d *dumper) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	req := res.Request
	host := "unknown"
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		host = raw.Request.URL.Host
	}
	name := dumpName(d.seq.Add(1), time.Now(), req.Method, host)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\n%s\n", req.Method, req.URL, res.Status())
	keys := make([]string, 0, len(res.Header()))
	for k := range res.Header() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\n", k, strings.Join(res.Header()[k], ", "))
	}
	buf.WriteString("\n")
	buf.Write(res.Body())

	if err := os.WriteFile(filepath.Join(d.dir, name), buf.Bytes(), 0o600); err != nil {
		d.log.Warn().Err(err).Str("file", name).Msg("failed to write response dump")
	}
	return nil
}

func dumpName(seq int64, at time.Time, method, host string) string {
	host = strings.NewReplacer(":", "_", "/", "_").Replace(host)
	return fmt.Sprintf("%05d-%s-%s-%s.txt", seq, at.UTC().Format(dumpTimeLayout), strings.ToLower(method), host)
}
