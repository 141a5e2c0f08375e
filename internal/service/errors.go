package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/sharelyst/internal/auth"
	"github.com/mmynk/sharelyst/internal/middleware"
	"github.com/mmynk/sharelyst/internal/settlement"
	"github.com/mmynk/sharelyst/internal/storage"
)

var (
	ErrInvalidCode        = errors.New("group code must be a 6-digit number")
	ErrGroupNameRequired  = errors.New("group name is required")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrEmptyProfile       = errors.New("first name or last name is required")

	// errLedgerInconsistent is what callers see in place of an
	// UnbalancedLedgerError; the details only go to the log.
	errLedgerInconsistent = errors.New("the group's payments do not add up; settlement cannot be computed")
)

// toConnectError maps domain errors to Connect codes. Unrecognized errors
// become CodeInternal.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var unbalanced *settlement.UnbalancedLedgerError
	switch {
	case errors.As(err, &unbalanced):
		return connect.NewError(connect.CodeInternal, errLedgerInconsistent)
	case errors.Is(err, storage.ErrGroupNotFound),
		errors.Is(err, storage.ErrUserNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, settlement.ErrEmptyGroup),
		errors.Is(err, storage.ErrNotInGroup),
		errors.Is(err, storage.ErrOutstandingPayments),
		errors.Is(err, storage.ErrAlreadyInGroup):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, settlement.ErrStaleLedger):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, settlement.ErrInvalidAction),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrGroupNameRequired),
		errors.Is(err, ErrInvalidTransaction),
		errors.Is(err, ErrEmptyProfile),
		errors.Is(err, storage.ErrNotGroupMember),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingFields):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, storage.ErrCodeExhausted):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// callerID returns the authenticated user's ID.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// callerGroupID returns the caller's group, or storage.ErrNotInGroup.
func callerGroupID(ctx context.Context, users storage.UserStore) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.GroupID == "" {
		return "", storage.ErrNotInGroup
	}
	return user.GroupID, nil
}

// fail logs err at a level matching its code and returns it as a Connect error.
func fail(op string, err error, attrs ...any) error {
	connectErr := toConnectError(err)
	attrs = append(attrs, "code", connectErr.Code(), "error", err)
	if connectErr.Code() == connect.CodeInternal {
		slog.Error(op+" failed", attrs...)
	} else {
		slog.Warn(op+" failed", attrs...)
	}
	return connectErr
}
