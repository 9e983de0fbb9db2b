// Package zaplogger contains the application wide structured logger
package zaplogger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const timestampLayout = "2006-01-02T15:04:05.999-0700"

var log *zap.Logger
var level zap.AtomicLevel
var encoderConfig zapcore.EncoderConfig

// Fields type, passed to the logging functions.
type Fields map[string]interface{}

// AppLogModel is a log entry persisted in the database
type AppLogModel struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	Level     string    `gorm:"index"`
	Caller    string
	Message   string
	Fields    string // JSON of the non standard keys
}

// TableName specifies the table name for AppLogModel
func (AppLogModel) TableName() string {
	return "_app_logs"
}

// DbWriter implements zapcore.WriteSyncer on top of a gorm table
type DbWriter struct {
	db *gorm.DB
}

// Write decodes one JSON encoded entry and stores it as a row
func (w *DbWriter) Write(p []byte) (int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(p, &raw); err != nil {
		return 0, err
	}

	entry := AppLogModel{
		Level:   unquote(raw["level"]),
		Caller:  unquote(raw["caller"]),
		Message: unquote(raw["message"]),
	}
	ts, err := time.Parse(timestampLayout, unquote(raw["timestamp"]))
	if err != nil {
		return 0, err
	}
	entry.Timestamp = ts

	extra := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		switch k {
		case "level", "timestamp", "caller", "message":
		default:
			extra[k] = v
		}
	}
	fieldsJSON, err := json.Marshal(extra)
	if err != nil {
		return 0, err
	}
	entry.Fields = string(fieldsJSON)

	if err := w.db.Create(&entry).Error; err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync is a no-op, every Write is committed immediately
func (w *DbWriter) Sync() error {
	return nil
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(timestampLayout))
}

func init() {
	level = zap.NewAtomicLevelAt(zap.DebugLevel)
	encoderConfig = zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "timestamp",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   customTimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level)
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// InitLogger initializes the logger with both console and database output
func InitLogger(db *gorm.DB) error {
	if err := db.AutoMigrate(&AppLogModel{}); err != nil {
		return fmt.Errorf("failed to auto migrate %s: %w", AppLogModel{}.TableName(), err)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(&DbWriter{db: db}), level),
	)

	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return nil
}

// SetLogLevel sets the logging level
func SetLogLevel(lvl string) {
	switch lvl {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "info":
		level.SetLevel(zapcore.InfoLevel)
	case "warn":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Info logs an info message
func Info(msg string, fields ...Fields) {
	log.Info(msg, getZapFields(fields)...)
}

// Debug logs a debug message
func Debug(msg string, fields ...Fields) {
	log.Debug(msg, getZapFields(fields)...)
}

// Warn logs a warning message
func Warn(msg string, fields ...Fields) {
	log.Warn(msg, getZapFields(fields)...)
}

// Error logs an error message
func Error(msg string, fields ...Fields) {
	log.Error(msg, getZapFields(fields)...)
}

// Fatal logs a fatal message and exits the program
func Fatal(msg string, fields ...Fields) {
	log.Fatal(msg, getZapFields(fields)...)
}

// TimeTrack logs the time taken since start
func TimeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	Info(name+" took "+elapsed.String(), Fields{"duration": elapsed})
}

func getZapFields(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields[0]))
	for k, v := range fields[0] {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

// Sync flushes any buffered log entries
func Sync() error {
	return log.Sync()
}
