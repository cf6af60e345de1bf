package driver

import "time"

// Stage describes one step of checking a unit.
type Stage string

const (
	// StageLoad reads and validates the action script.
	StageLoad Stage = "load"
	// StageReplay drives the unit through the script.
	StageReplay Stage = "replay"
	// StageFinish closes the unit and mangles its names.
	StageFinish Stage = "finish"
	// StageExport writes the manifest.
	StageExport Stage = "export"
	// StageDone closes the event stream of a file; its status is the verdict
	// on the whole unit.
	StageDone Stage = "done"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Check calls OnEvent from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
