package fsptrainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a transcript of the example sentence calls of one session
type LLMLogger struct {
	file      *os.File
	mu        sync.Mutex
	sessionID string
}

// NewLLMLogger creates the transcript file <dir>/<sessionID>.log
func NewLLMLogger(dir, sessionID string) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", sessionID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	ll := &LLMLogger{
		file:      file,
		sessionID: sessionID,
	}

	ll.Logf("=== Terminologie Session Log ===\n")
	ll.Logf("Session ID: %s\n", sessionID)
	ll.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	ll.Logf("================================\n\n")

	return ll, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writef(format, args...)
}

func (ll *LLMLogger) writef(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(term, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", term)
	ll.Logf("Prompt:\n%s\n", prompt)
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(term, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", term)
	ll.Logf("Response:\n%s\n\n", response)
}

// LogFallback logs that the fixed template was used instead
func (ll *LLMLogger) LogFallback(term string, cause error) {
	ll.Logf("=== FALLBACK (%s) === %v\n\n", term, cause)
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.writef("=== Session Closed: %s ===\n", time.Now().Format(time.RFC3339))
	err := ll.file.Close()
	ll.file = nil
	return err
}
