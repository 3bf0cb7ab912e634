package rotation

import (
	"encoding/json"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// AuditEntry is one line of the rotation log.
type AuditEntry struct {
	Timestamp string       `json:"timestamp"`
	Level     string       `json:"level"`
	Event     string       `json:"event"`
	From      int          `json:"from"`
	To        int          `json:"to"`
	Reason    SwitchReason `json:"reason"`
}

// AuditLog appends switch events to a line-oriented JSON file. It is
// best-effort by contract: the log is diagnostic, not authoritative, so
// append failures are logged and swallowed rather than failing the swap.
type AuditLog struct {
	path string
}

// NewAuditLog returns a log writing to path.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Record appends one switch event.
func (a *AuditLog) Record(from, to int, reason SwitchReason, now time.Time) {
	entry := AuditEntry{
		Timestamp: now.Format(time.RFC3339),
		Level:     "INFO",
		Event:     "account_switch",
		From:      from,
		To:        to,
		Reason:    reason,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.WithError(err).Warn("failed to encode audit entry")
		return
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.WithError(err).Warnf("failed to open rotation log %s", a.path)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.WithError(err).Warnf("failed to append to rotation log %s", a.path)
	}
}
