// Package notifier
package notifier

import (
	"errors"
	"log"
	"time"
)

// Notifier interface for sending alert notifications (e.g., Telegram, log).
type Notifier interface {
	Send(msg string) error
	SendWithRetry(msg string) error
}

// retry calls send up to attempts times, sleeping delay between failures.
func retry(attempts int, delay time.Duration, send func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = send(); err == nil {
			return nil
		}
		if i < attempts-1 && delay > 0 {
			time.Sleep(delay)
		}
	}
	return err
}

// LogNotifier writes messages to a logger. Useful as a fallback sink and in tests.
type LogNotifier struct {
	Logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (l *LogNotifier) Send(msg string) error {
	if l.Logger == nil {
		log.Println(msg)
		return nil
	}
	l.Logger.Println(msg)
	return nil
}

func (l *LogNotifier) SendWithRetry(msg string) error {
	return l.Send(msg)
}

// Multi fans a message out to several notifiers. Every notifier is tried;
// failures are joined.
type Multi []Notifier

func (m Multi) Send(msg string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) SendWithRetry(msg string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendWithRetry(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
