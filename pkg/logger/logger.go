package logger

import (
	"log"
	"os"
)

type Logger struct {
	info  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

func New() *Logger {
	return &Logger{
		info:  log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		err:   log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		debug: log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.info.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.err.Printf(format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.debug.Printf(format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.err.Printf(format, v...)
	os.Exit(1)
}

// Global logger instance
var Default = New()

func Info(format string, v ...interface{}) {
	Default.Info(format, v...)
}

func Error(format string, v ...interface{}) {
	Default.Error(format, v...)
}

func Debug(format string, v ...interface{}) {
	Default.Debug(format, v...)
}

func Fatal(format string, v ...interface{}) {
	Default.Fatal(format, v...)
}
