package scheduler

import "errors"

// ErrSchedulerNotRunning is returned by TriggerNow before Start or after Stop
var ErrSchedulerNotRunning = errors.New("scheduler is not running")
