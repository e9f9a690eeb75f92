package media

import (
	"errors"

	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/gen2brain/malgo"
)

var malgoKinds = []struct {
	kind media.ErrorKind
	errs []error
}{
	{media.KindPermissionDenied, []error{malgo.ErrAccessDenied}},
	{media.KindDeviceNotFound, []error{malgo.ErrNoDevice, malgo.ErrNoBackend, malgo.ErrDoesNotExist, malgo.ErrAPINotFound}},
	{media.KindDeviceBusy, []error{malgo.ErrBusy, malgo.ErrAlreadyInUse, malgo.ErrShareModeNotSupported}},
	{media.KindConstraintsUnsatisfiable, []error{malgo.ErrFormatNotSupported, malgo.ErrDeviceTypeNotSupported, malgo.ErrInvalidDeviceConfig}},
}

// classifyDeviceError maps miniaudio result codes to an acquisition kind and
// falls back to media.Classify for everything else.
func classifyDeviceError(device string, err error) *media.AcquireError {
	for _, k := range malgoKinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return &media.AcquireError{Kind: k.kind, Device: device, Err: err}
			}
		}
	}
	return media.Classify(device, err)
}
