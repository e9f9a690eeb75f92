package media

import "github.com/foxseedlab/mensetsu/internal/audio"

type Recording interface {
	Stop() error
	Discard() error
	Path() string
}

type Recorder interface {
	Start(interviewID string, src audio.Source) (Recording, error)
}

type NopRecorder struct{}

func (NopRecorder) Start(string, audio.Source) (Recording, error) {
	return nopRecording{}, nil
}

type nopRecording struct{}

func (nopRecording) Stop() error    { return nil }
func (nopRecording) Discard() error { return nil }
func (nopRecording) Path() string   { return "" }
