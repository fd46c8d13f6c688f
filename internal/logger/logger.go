package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

var (
	base    = zerolog.Nop()
	logFile *os.File
	mu      sync.Mutex
)

// New creates a zerolog.Logger for the HTTP services.
func New(service, environment, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", service).
		Str("environment", environment).
		Logger().
		Level(ParseLevel(level))
}

// InitLogger configures the terminal client logger. In dev mode records are
// mirrored to view, and a timestamped log file is opened under logPath when
// it is set. Without either sink the logger discards everything.
func InitLogger(dev bool, logPath string, view io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	var writers []io.Writer
	if dev && view != nil {
		writers = append(writers, &consoleView{out: view})
	}

	if logPath != "" {
		fileName := fmt.Sprintf("oblaka_log_%s.log", time.Now().Format("20060102_150405"))
		file, err := os.OpenFile(filepath.Join(logPath, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = file
		writers = append(writers, file)
	}

	if len(writers) == 0 {
		base = zerolog.Nop()
		return nil
	}

	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}
	base = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level)
	return nil
}

// NewLogger returns a child of the client logger tagged with component.
func NewLogger(tag string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base.With().Str("component", tag).Logger()
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.Nop()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ParseLevel maps a textual level onto zerolog, falling back to info.
func ParseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// consoleView renders records as tview color-tagged lines.
type consoleView struct {
	out io.Writer
}

func (c *consoleView) Write(p []byte) (int, error) {
	return c.WriteLevel(zerolog.NoLevel, p)
}

func (c *consoleView) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var color string
	switch level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		color = "red"
	case zerolog.WarnLevel:
		color = "yellow"
	default:
		color = "green"
	}
	line := strings.TrimRight(string(p), "\n")
	if _, err := fmt.Fprintf(c.out, "[%s]%s[-]\n", color, tview.Escape(line)); err != nil {
		return 0, err
	}
	return len(p), nil
}
