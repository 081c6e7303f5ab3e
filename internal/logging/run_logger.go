package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RunLogger manages the transcript for a single auto-reply run. It is a
// plain-text audit file alongside the structured zerolog stream, meant
// for reading back what a run actually sent.
type RunLogger struct {
	runID     string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// LogDir is where run transcripts are written.
const LogDir = "reply_logs"

// StartRunLogging initializes the transcript for a new auto-reply run.
func StartRunLogging(runID string) (*RunLogger, error) {
	timestamp := time.Now().Format("20060102_150405")
	logFileName := fmt.Sprintf("run_%s_%s.log", runID, timestamp)
	logPath := filepath.Join(LogDir, logFileName)

	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &RunLogger{
		runID:     runID,
		logFile:   logFile,
		startTime: time.Now(),
	}
	logger.writeHeader()
	return logger, nil
}

func (r *RunLogger) writeHeader() {
	r.Log("Auto-reply run %s started at %s", r.runID, r.startTime.Format(time.RFC3339))
}

// Log writes a timestamped message to the run transcript.
func (r *RunLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(r.startTime)
	message := fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed.Round(time.Millisecond), fmt.Sprintf(format, args...))
	r.logFile.WriteString(message)
	r.logFile.Sync()
}

// LogSection writes a section header to the transcript.
func (r *RunLogger) LogSection(title string) {
	if r == nil {
		return
	}

	separator := strings.Repeat("=", 80)
	r.Log("%s", separator)
	r.Log("= %s", title)
	r.Log("%s", separator)
}

// LogReply records a generated reply against its review.
func (r *RunLogger) LogReply(reviewID, status, response string) {
	if r == nil {
		return
	}

	r.LogSection(fmt.Sprintf("REVIEW %s - %s", reviewID, strings.ToUpper(status)))
	if response != "" {
		r.mutex.Lock()
		r.logFile.WriteString(response + "\n")
		r.mutex.Unlock()
	}
}

// LogError logs an error with the step it occurred in.
func (r *RunLogger) LogError(step string, err error) {
	if r == nil {
		return
	}

	r.Log("ERROR in %s: %v", step, err)
}

// Close finalizes the transcript with run duration.
func (r *RunLogger) Close() {
	if r == nil || r.logFile == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	elapsed := time.Since(r.startTime)
	r.logFile.WriteString(fmt.Sprintf("\nRun %s finished after %v\n", r.runID, elapsed.Round(time.Millisecond)))
	r.logFile.Close()
	r.logFile = nil
}
