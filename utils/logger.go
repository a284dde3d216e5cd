package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	out *log.Logger
	err *log.Logger
}

// NewLogger creates a new Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return &Logger{
		out: log.New(os.Stdout, "", 0),
		err: log.New(os.Stderr, "", 0),
	}
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", timestamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", timestamp(), format), args...)
}

// Printf satisfies the printf-style logger interfaces of third-party
// packages (cron job wrappers log through this at INFO level).
func (l *Logger) Printf(format string, args ...any) {
	l.Info(format, args...)
}
