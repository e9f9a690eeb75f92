package media

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPermissionDenied
	KindDeviceNotFound
	KindDeviceBusy
	KindConstraintsUnsatisfiable
	KindSecurityError
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindDeviceNotFound:
		return "device_not_found"
	case KindDeviceBusy:
		return "device_busy"
	case KindConstraintsUnsatisfiable:
		return "constraints_unsatisfiable"
	case KindSecurityError:
		return "security_error"
	default:
		return "unknown"
	}
}

var (
	ErrVideoDisabled   = errors.New("video track is disabled")
	ErrNoVideoTrack    = errors.New("stream has no video track")
	ErrSessionReleased = errors.New("media session already released")
	ErrNotAcquired     = errors.New("media not acquired")
)

type AcquireError struct {
	Kind   ErrorKind
	Device string
	Err    error
}

func (e *AcquireError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("acquire %s: %s", e.deviceLabel(), e.Kind)
	}
	return fmt.Sprintf("acquire %s: %s: %v", e.deviceLabel(), e.Kind, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the candidate.
func (e *AcquireError) Message() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Access to the " + e.deviceLabel() + " was denied. Allow access in your system privacy settings and press start again."
	case KindDeviceNotFound:
		return "No " + e.deviceLabel() + " was found. Connect one, check MEDIA_AUDIO_DEVICE / MEDIA_CAMERA_FRAME_PATH and press start again."
	case KindDeviceBusy:
		return "The " + e.deviceLabel() + " is in use by another application. Close it and press start again."
	case KindConstraintsUnsatisfiable:
		return "The " + e.deviceLabel() + " does not support the requested settings. Try a different device or lower the resolution."
	case KindSecurityError:
		return "Media access requires a secure connection. Use an https API_BASE_URL or a localhost backend."
	default:
		return "Could not access the " + e.deviceLabel() + ". Check your devices and press start again."
	}
}

func (e *AcquireError) deviceLabel() string {
	if e.Device == "" {
		return "camera and microphone"
	}
	return e.Device
}

// Classify maps a device failure to an AcquireError. Errors that already
// carry a kind are returned unchanged.
func Classify(device string, err error) *AcquireError {
	if err == nil {
		return nil
	}
	var acqErr *AcquireError
	if errors.As(err, &acqErr) {
		return acqErr
	}
	msg := strings.ToLower(err.Error())
	kind := KindUnknown
	switch {
	case containsAny(msg, "permission", "denied", "not permitted", "not allowed"):
		kind = KindPermissionDenied
	case containsAny(msg, "not found", "no such", "no device", "no backend"):
		kind = KindDeviceNotFound
	case containsAny(msg, "busy", "in use", "already"):
		kind = KindDeviceBusy
	case containsAny(msg, "format", "unsupported", "constraint", "resolution"):
		kind = KindConstraintsUnsatisfiable
	}
	return &AcquireError{Kind: kind, Device: device, Err: err}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
