// Package report writes the human-readable analysis report. Sections are
// appended as they are accepted; the overview is inserted under the header
// once the job has a description.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/telltaleatheist/clippy-sub006/internal/analysis"
	"github.com/telltaleatheist/clippy-sub006/internal/logging"
	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

const ruleWidth = 80

var (
	headerRule  = strings.Repeat("=", ruleWidth)
	sectionRule = strings.Repeat("-", ruleWidth)
	header      = headerRule + "\nVIDEO ANALYSIS RESULTS\n" + headerRule + "\n\n"
)

// Writer appends report blocks to one file. It holds an exclusive lock on
// the report until Close.
type Writer struct {
	path     string
	lockPath string
	lock     *flock.Flock
	logger   *slog.Logger

	mu       sync.Mutex
	sections int
	closed   bool
}

// Open truncates path, writes the report header, and locks the report
// against a second writer.
func Open(path string, logger *slog.Logger) (*Writer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "report", "open", "report path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire report lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrUnavailable, "report", "open",
			fmt.Sprintf("report %s is being written by another job", path), nil)
	}

	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write report header: %w", err)
	}
	w := &Writer{
		path:     path,
		lockPath: lockPath,
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "report"),
	}
	w.logger.Debug("report opened", logging.String("path", path))
	return w, nil
}

// Path returns the report location.
func (w *Writer) Path() string { return w.path }

// WriteSection appends one section block.
func (w *Writer) WriteSection(s analysis.Section) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return services.Wrap(services.ErrValidation, "report", "write section", "report closed", nil)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	writeSection(bw, s)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("append section: %w", err)
	}
	w.sections++
	return nil
}

func writeSection(buf *bufio.Writer, s analysis.Section) {
	span := s.StartTime
	if s.EndTime != "" {
		span += " - " + s.EndTime
	}
	fmt.Fprintf(buf, "**%s - %s [%s]**\n\n", span, s.Description, s.Category)
	for _, q := range s.Quotes {
		fmt.Fprintf(buf, "%s - \"%s\"\n", q.Timestamp, q.Text)
		if q.Significance != "" {
			fmt.Fprintf(buf, "   → %s\n", q.Significance)
		}
		buf.WriteString("\n")
	}
	buf.WriteString(sectionRule + "\n\n")
}

// WriteOverview inserts the description between the header and the first
// section. It is called once per job.
func (w *Writer) WriteOverview(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return services.Wrap(services.ErrValidation, "report", "write overview", "report closed", nil)
	}

	existing, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	body := bytes.TrimPrefix(existing, []byte(header))

	var out bytes.Buffer
	out.WriteString(header)
	out.WriteString("**VIDEO OVERVIEW**\n\n")
	out.WriteString(description)
	out.WriteString("\n\n" + sectionRule + "\n\n")
	out.Write(body)

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// Close releases the report lock.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.lock.Unlock(); err != nil {
		return fmt.Errorf("release report lock: %w", err)
	}
	if err := os.Remove(w.lockPath); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("failed to remove report lock file", logging.Error(err))
	}
	w.logger.Debug("report closed",
		logging.String("path", w.path),
		logging.Int("sections", w.sections),
	)
	return nil
}
