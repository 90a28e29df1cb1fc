package logger

import (
	"sync"

	"go.uber.org/zap"
)

type ZapLogger struct {
	log *zap.SugaredLogger
}

var (
	zapLogger *ZapLogger
	zapLock   sync.RWMutex
)

func NewLogger(config zap.Config) (*ZapLogger, error) {
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync() //nolint
	SetLogger(logger)
	return GetLogger(), nil
}

// SetLogger replaces the package logger. Tests use it with zap.NewNop().
func SetLogger(logger *zap.Logger) {
	zapLock.Lock()
	defer zapLock.Unlock()
	zapLogger = &ZapLogger{log: logger.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

func GetLogger() *ZapLogger {
	zapLock.RLock()
	defer zapLock.RUnlock()
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

// With returns a child logger. A child is called directly, without the
// package-level helper frame, so one frame of caller skip is removed.
func (l *ZapLogger) With(values ...any) Logger {
	return &ZapLogger{log: l.log.WithOptions(zap.AddCallerSkip(-1)).With(values...)}
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}
