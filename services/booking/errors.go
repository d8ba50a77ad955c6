package booking

import (
	"errors"

	"medbook/database"
	"medbook/utils"
)

var errInvalidTransition = utils.ValidationError("invalid booking status transition")

// mapRepoErr translates repository sentinels into caller-facing errors.
func mapRepoErr(err error, action string) error {
	var appErr *utils.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, database.ErrNotFound):
		return utils.NotFoundError("booking not found")
	case errors.Is(err, database.ErrVersionConflict):
		return utils.ConflictError("booking was modified concurrently, reload and retry")
	case errors.Is(err, database.ErrDuplicate):
		return utils.ConflictError("booking number already exists")
	default:
		return utils.InternalError(err, "failed to %s booking", action)
	}
}
