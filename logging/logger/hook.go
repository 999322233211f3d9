package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ncobase/rendercore/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// HookType represents the type of logging hook
type HookType string

const (
	HookSentry HookType = "sentry"
)

// HookFactory creates a logrus hook from configuration
type HookFactory func(cfg *config.Config) (logrus.Hook, error)

var (
	hookFactories = map[HookType]HookFactory{
		HookSentry: newSentryHook,
	}
	hookMu sync.RWMutex
)

// RegisterHookFactory registers a hook factory for a given type.
func RegisterHookFactory(hookType HookType, factory HookFactory) {
	hookMu.Lock()
	defer hookMu.Unlock()
	hookFactories[hookType] = factory
}

// GetHookFactory returns the factory for a given hook type
func GetHookFactory(hookType HookType) (HookFactory, bool) {
	hookMu.RLock()
	defer hookMu.RUnlock()
	factory, ok := hookFactories[hookType]
	return factory, ok
}

// initHooks installs every hook the configuration asks for
func (l *Logger) initHooks(cfg *config.Config) error {
	if cfg == nil || cfg.Sentry == nil || cfg.Sentry.Dsn == "" {
		return nil
	}

	factory, ok := GetHookFactory(HookSentry)
	if !ok {
		return nil
	}
	hook, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("failed to create sentry hook: %w", err)
	}
	l.AddHook(hook)
	return nil
}

// SentryHook forwards error level entries to Sentry.
type SentryHook struct {
	hub     *sentry.Hub
	timeout time.Duration
}

func newSentryHook(cfg *config.Config) (logrus.Hook, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.Sentry.Dsn,
		AttachStacktrace: true,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
	})
	if err != nil {
		return nil, err
	}
	return NewSentryHook(sentry.NewHub(client, sentry.NewScope())), nil
}

// NewSentryHook creates a hook reporting through hub
func NewSentryHook(hub *sentry.Hub) *SentryHook {
	return &SentryHook{hub: hub, timeout: 2 * time.Second}
}

// Levels returns the levels the hook fires on
func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

// Fire sends the entry to Sentry as a message event
func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Timestamp = entry.Time
	event.Extra = make(map[string]any, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		event.Extra[k] = v
	}
	if traceID, ok := entry.Data[traceKey].(string); ok {
		event.Tags = map[string]string{traceKey: traceID}
	}

	h.hub.CaptureEvent(event)
	if entry.Level <= logrus.FatalLevel {
		h.hub.Flush(h.timeout)
	}
	return nil
}

func sentryLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
