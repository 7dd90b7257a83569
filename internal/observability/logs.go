package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Log file name per monitoring category.
const (
	RPCCallLogFile   = "rpc_call.log"
	RPCConnLogFile   = "rpc_conn.log"
	QueryCallLogFile = "query_call.log"
	QueryConnLogFile = "query_conn.log"
	RedisLogFile     = "redis.log"
)

// Logs bundles the per-category monitoring loggers. Each category gets its
// own file so that downstream analysis can tail one concern at a time. A nil
// *Logs, or a nil category logger, disables that category.
type Logs struct {
	RPCCall   *slog.Logger
	RPCConn   *slog.Logger
	QueryCall *slog.Logger
	QueryConn *slog.Logger
	Redis     *slog.Logger

	files []*os.File
}

// OpenLogs opens the monitoring log files under dir in append mode and
// returns the category loggers. Every line carries the process id; the
// request id is appended per line from the context.
func OpenLogs(dir string) (*Logs, error) {
	l := &Logs{}
	open := func(name string) (*slog.Logger, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("op=observability.openlogs file=%s: %w", name, err)
		}
		l.files = append(l.files, f)
		h := slog.NewTextHandler(f, nil)
		return slog.New(h).With(slog.Int("pid", os.Getpid())), nil
	}
	var err error
	if l.RPCCall, err = open(RPCCallLogFile); err != nil {
		return nil, err
	}
	if l.RPCConn, err = open(RPCConnLogFile); err != nil {
		return nil, err
	}
	if l.QueryCall, err = open(QueryCallLogFile); err != nil {
		return nil, err
	}
	if l.QueryConn, err = open(QueryConnLogFile); err != nil {
		return nil, err
	}
	if l.Redis, err = open(RedisLogFile); err != nil {
		return nil, err
	}
	return l, nil
}

// Close closes the underlying log files.
func (l *Logs) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

// LogLatency emits one monitoring line on lg: the given k=v attributes plus
// rid from the context and lat in seconds. A nil lg drops the line.
func LogLatency(ctx context.Context, lg *slog.Logger, msg string, lat time.Duration, attrs ...any) {
	if lg == nil {
		return
	}
	attrs = append(attrs,
		slog.String("rid", RequestIDFromContext(ctx)),
		slog.Float64("lat", lat.Seconds()))
	lg.Info(msg, attrs...)
}
