package errors

import (
	pkgerrors "github.com/Conte777/NewsFlow/services/sentinel-service/pkg/errors"
)

var (
	ErrEmptyName          = pkgerrors.NewValidationError("account name is required")
	ErrInvalidName        = pkgerrors.NewValidationError("account name may contain only letters, digits, '_' and '-'")
	ErrInvalidCredentials = pkgerrors.NewValidationError("api id, api hash and phone are required")
	ErrInvalidDestination = pkgerrors.NewValidationError("destination chat id is required")
	ErrInvalidAdminID     = pkgerrors.NewValidationError("admin id must be positive")

	ErrNotAdmin               = pkgerrors.NewPermissionError("operator is not an admin")
	ErrMainAdminOnly          = pkgerrors.NewPermissionError("only the main admin can manage admins")
	ErrDestinationUnreachable = pkgerrors.NewValidationError("test message could not be delivered to the destination")
)
