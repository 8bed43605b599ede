package logsvc

import (
	"fmt"
	"io"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/user"
)

// RollbarLogger prints to a std logger and forwards to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures Rollbar from conf. Reporting is on outside debug/test mode when a token is set.
func NewRollbarLogger(out io.Writer, prefix string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !(conf.Debug || conf.TestMode))

	return &RollbarLogger{std: log.New(out, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile)}
}

// Named returns a logger sharing the Rollbar setup with a different prefix. eg: "DB : "
func (l *RollbarLogger) Named(prefix string) *RollbarLogger {
	return &RollbarLogger{std: log.New(l.std.Writer(), prefix, l.std.Flags())}
}

// Std exposes the underlying std logger, for libraries that want one.
func (l *RollbarLogger) Std() *log.Logger {
	return l.std
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !usrSet && usr.ID != "" {
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
			continue
		}
		newArgs = append(newArgs, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	_ = l.std.Output(3, fmt.Sprintf("%s: %s", level, msg))
	for _, arg := range args {
		if _, ok := arg.(user.User); ok {
			continue
		}
		_ = l.std.Output(3, fmt.Sprintf("%+v", arg))
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
