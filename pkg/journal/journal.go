package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ReportRecord captures one account report for later audit.
type ReportRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	Provider       string           `json:"provider,omitempty"`
	Cycle          int              `json:"cycle"`
	Running        int              `json:"running"`
	UnrealizedPl   *decimal.Decimal `json:"unrealized_pl,omitempty"`
	RealizedPl     *decimal.Decimal `json:"realized_pl,omitempty"`
	MarginWithheld *decimal.Decimal `json:"margin_withheld,omitempty"`
	Index          *decimal.Decimal `json:"index,omitempty"`
	Bid            *decimal.Decimal `json:"bid,omitempty"`
	Offer          *decimal.Decimal `json:"offer,omitempty"`
	MarginAlert    bool             `json:"margin_alert"`
	Errors         []string         `json:"errors,omitempty"`
}

// Writer persists report records to a directory, one JSON file each.
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// Dir returns the directory records are written to.
func (w *Writer) Dir() string { return w.dir }

// WriteReport stamps rec with the next cycle number and writes it to a
// timestamped file. The path of the file is returned.
func (w *Writer) WriteReport(rec *ReportRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.Cycle = w.seq
	name := fmt.Sprintf("report_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
