// Package utils
package utils

import (
	"io"
	"log"
	"os"
	"sync"
)

const defaultLogFile = "rsi-alert.log"

var (
	logger  *log.Logger
	once    sync.Once
	logPath = defaultLogFile
	mu      sync.Mutex
)

// SetLogFile changes the file GetLogger opens. It has no effect once the
// logger has been created. An empty path logs to stderr.
func SetLogFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	logPath = path
}

// NewLogger returns a logger with the application prefix writing to w.
func NewLogger(w io.Writer) *log.Logger {
	return log.New(w, "RSI Alert: ", log.LstdFlags)
}

func GetLogger() *log.Logger {
	once.Do(func() {
		mu.Lock()
		path := logPath
		mu.Unlock()

		if path == "" {
			logger = NewLogger(os.Stderr)
			return
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		logger = NewLogger(file)
	})
	return logger
}
