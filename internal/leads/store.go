package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Store persists finalized leads. Append returns the path of the full
// lead card so it can be attached to the notification email.
type Store interface {
	Append(ctx context.Context, lead *Lead) (cardPath string, err error)
}

var (
	spacesRE = regexp.MustCompile(`\s+`)
	unsafeRE = regexp.MustCompile(`[^0-9A-Za-zА-Яа-я_\-]+`)
)

func safeName(s string) string {
	s = spacesRE.ReplaceAllString(strings.TrimSpace(s), "_")
	s = unsafeRE.ReplaceAllString(s, "")
	if len([]rune(s)) > 80 {
		s = string([]rune(s)[:80])
	}
	if s == "" {
		return "lead"
	}
	return s
}

// FileStore appends a one-line summary to a plain text log and writes
// the full JSON card next to it.
type FileStore struct {
	logPath  string
	cardsDir string
	mu       sync.Mutex
}

// NewFileStore creates the log file's directory and the cards directory.
func NewFileStore(logPath, cardsDir string) (*FileStore, error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("leads: create log dir: %w", err)
		}
	}
	if err := os.MkdirAll(cardsDir, 0o755); err != nil {
		return nil, fmt.Errorf("leads: create cards dir: %w", err)
	}
	return &FileStore{logPath: logPath, cardsDir: cardsDir}, nil
}

func (s *FileStore) Append(_ context.Context, lead *Lead) (string, error) {
	if err := lead.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := lead.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	line := fmt.Sprintf(
		"[%s] platform=%s user_id=%s username=%s name=%s lead_kind=%s city=%s area_m2=%g extras=%s visit_date=%s visit_time=%s address=%s phone=%s\n",
		ts.Format("2006-01-02 15:04:05"),
		lead.Platform, lead.UserID,
		orDash(lead.Username), orDash(lead.Name), orDash(lead.Kind),
		lead.City, lead.AreaM2, orDash(strings.Join(lead.Extras, ",")),
		orDash(lead.VisitDate), orDash(lead.VisitTime), orDash(lead.Address), lead.Phone,
	)

	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("leads: open log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return "", fmt.Errorf("leads: append log: %w", err)
	}

	fname := fmt.Sprintf("lead_%d_%s_%s_%s.json",
		ts.Unix(), safeName(lead.Platform), safeName(lead.UserID), safeName(lead.City))
	cardPath := filepath.Join(s.cardsDir, fname)

	card, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return "", fmt.Errorf("leads: marshal card: %w", err)
	}
	if err := os.WriteFile(cardPath, card, 0o644); err != nil {
		return "", fmt.Errorf("leads: write card: %w", err)
	}
	return cardPath, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
