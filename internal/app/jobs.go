package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RemoteStatus is the last result of the remote backend probe
type RemoteStatus struct {
	Backend   string    `json:"backend"`
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	if a.remote != nil {
		_, err = a.sched.AddFunc("@every 1m", func() {
			a.SchedRemoteProbeTask()
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

// SchedRemoteProbeTask pings the remote document store
func (a *Application) SchedRemoteProbeTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	a.ProbeRemote()
}

// ProbeRemote checks the remote backend now. State changes are logged.
func (a *Application) ProbeRemote() RemoteStatus {
	if a.remote == nil {
		return a.RemoteStatus()
	}
	timeout := a.appConfig.Remote.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	st := RemoteStatus{Backend: a.remote.Name(), Available: true, CheckedAt: time.Now()}
	if err := a.remote.Ping(ctx); err != nil {
		st.Available = false
		st.Error = err.Error()
	}

	prev := a.RemoteStatus()
	a.setStatus(st)
	switch {
	case prev.Available && !st.Available:
		zap.L().Warn("remote catalog went down, writes fall back to the local store",
			zap.String("namespace", "app"),
			zap.String("backend", st.Backend),
			zap.String("error", st.Error))
	case !prev.Available && st.Available:
		zap.L().Info("remote catalog is back",
			zap.String("namespace", "app"),
			zap.String("backend", st.Backend))
	}
	return st
}

// RemoteStatus returns the last probe result
func (a *Application) RemoteStatus() RemoteStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

func (a *Application) setStatus(st RemoteStatus) {
	a.statusMu.Lock()
	a.status = st
	a.statusMu.Unlock()
}
