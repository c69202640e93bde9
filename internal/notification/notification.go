// Package notification delivers rendered verification messages. Delivery outcomes are
// reported, never enforced: callers record the issued code whether or not a send succeeds.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Message is a rendered message addressed to one applicant.
type Message struct {
	ApplicantID string `json:"applicant_id"`
	Channel     string `json:"channel"`
	To          string `json:"to"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
}

// Result is the observable outcome of a send. Err is set when Success is false.
type Result struct {
	Success bool
	Err     error
}

// Sender delivers messages. Implementations must not panic on transport failure.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

func ok() Result { return Result{Success: true} }

func failed(err error) Result { return Result{Err: err} }

// envelope is the wire payload handed to brokers.
type envelope struct {
	Message
	SentAt time.Time `json:"sent_at"`
}

func encode(msg Message, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{Message: msg, SentAt: now.UTC()})
}

// routingKey is "verification.code.<channel>" in lower case.
func routingKey(channel string) string {
	ch := strings.ToLower(strings.TrimSpace(channel))
	if ch == "" {
		ch = "email"
	}
	return "verification.code." + ch
}

// LogSender writes messages to the log instead of delivering them. It is the
// default for local runs; bodies are never logged since they carry the code.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) Result {
	s.logger.InfoContext(ctx, "verification message",
		"applicant_id", msg.ApplicantID,
		"channel", msg.Channel,
		"to", Mask(msg.To),
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return ok()
}

// Mask hides most of an address for logs: "maria@example.com" becomes "m****@example.com"
// and "+639171234567" becomes "*********4567".
func Mask(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if at := strings.IndexByte(addr, '@'); at > 0 {
		return addr[:1] + strings.Repeat("*", at-1) + addr[at:]
	}
	if len(addr) <= 4 {
		return strings.Repeat("*", len(addr))
	}
	return strings.Repeat("*", len(addr)-4) + addr[len(addr)-4:]
}
