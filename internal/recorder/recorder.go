package recorder

import "btracker/internal/model"

// Recorder persists a history of pipeline runs for later analysis.
type Recorder interface {
	RecordRun(res *model.Result, source string) error
	Close() error
}
