package eventloop

import "errors"

// ErrAlreadyRunning is returned when Run is called on a loop that is already running.
var ErrAlreadyRunning = errors.New("eventloop: already running")
