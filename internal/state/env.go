// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/config"
	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/pkg/api"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now(), Log: zap.NewNop()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// Exporter builds a report exporter from the loaded configuration. Export
// events are written to the program log.
func (e *LocalEnv) Exporter(opts ...api.Option) (*api.Exporter, error) {
	base, err := e.Cfg.Export.ToOptions()
	if err != nil {
		return nil, err
	}
	log := e.Log
	notifier := report.NotifierFunc(func(level report.Level, msg string) {
		switch level {
		case report.LevelError:
			log.Warn(msg)
		default:
			log.Info(msg)
		}
	})
	base = append(base, api.WithLogger(log), api.WithNotifier(notifier))
	return api.New(append(base, opts...)...), nil
}
