package skinning

import (
	"github.com/charmbracelet/log"
)

// UploaderBuilderOption is a functional option for configuring an Uploader via NewUploader.
type UploaderBuilderOption func(*uploader)

// WithLogger is an option builder that sets the uploader logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - UploaderBuilderOption: a function that applies the logger option to an uploader
func WithLogger(logger *log.Logger) UploaderBuilderOption {
	return func(u *uploader) {
		u.logger = logger
	}
}
