package session

import (
	"fmt"
	"time"

	"github.com/foxseedlab/mensetsu/internal/timer"
)

type EndReason string

const (
	EndReasonCandidate EndReason = "candidate_ended"
	EndReasonTimeUp    EndReason = "time_up"
	EndReasonShutdown  EndReason = "shutdown"
	EndReasonAborted   EndReason = "aborted"
)

const (
	messageConnecting            = "Requesting microphone and camera access..."
	messageStartedFormat         = "Interview started. You have %s. Your questions are being prepared."
	messageAudioOnly             = "No camera available; continuing with audio only."
	messageWaitingQuestions      = "Questions are still being generated. Please wait..."
	messagePollFailed            = "Could not reach the interview server. Retrying..."
	messagePollRecovered         = "Connection to the interview server restored."
	messageAllAnswered           = "All questions answered. Press ctrl+e to finish the interview."
	messagePaused                = "Interview paused. The timer is stopped."
	messageResumed               = "Interview resumed."
	messageEmptyAnswer           = "Please type or speak an answer before submitting."
	messageAnswerFailedFormat    = "Your answer could not be submitted: %s Please try again."
	messageNoSpeech              = "No speech was detected. Try again when you are ready."
	messageRecognitionFailed     = "Speech recognition failed. You can type your answer instead."
	messageRecognitionOff        = "Speech recognition is not available. Please type your answer."
	messageNoMicrophone          = "No microphone is active. Please type your answer."
	messageSpokenAnswerStale     = "The question changed while you were speaking; your spoken answer was not submitted."
	messageSpeechUnavailable     = "Speech output is unavailable; questions are shown as text only."
	messageTimeWarningFormat     = "%s remaining."
	messageMicMuted              = "Microphone muted."
	messageMicUnmuted            = "Microphone unmuted."
	messageCameraOff             = "Camera turned off."
	messageCameraOn              = "Camera turned on."
	messageStartFailedFormat     = "The interview could not be started: %s"
	messageEndingFormat          = "Ending interview: %s"
	messageCompleteFailedFormat  = "The interview ended, but the server could not complete it: %s"
	messageCompleteDefault       = "Interview completed. Your report is being prepared."
	messageRecordingSavedFormat  = "Recording saved to %s"
	messageRecordingFailedFormat = "Recording could not be started: %s"
)

func startedMessage(budget time.Duration) string {
	return fmt.Sprintf(messageStartedFormat, humanDuration(budget))
}

func timeWarningMessage(remaining time.Duration) string {
	return fmt.Sprintf(messageTimeWarningFormat, humanDuration(remaining))
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return timer.Format(d)
}

func endReasonDetail(reason EndReason) string {
	switch reason {
	case EndReasonCandidate:
		return "you ended the interview."
	case EndReasonTimeUp:
		return "the time limit was reached."
	case EndReasonShutdown:
		return "the application is shutting down."
	case EndReasonAborted:
		return "the interview was aborted."
	default:
		return "an unknown error occurred."
	}
}
