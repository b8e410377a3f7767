package http

import (
	"errors"
	"net/http"

	"github.com/rembayung/waitroom/internal/service"
	pkgErrors "github.com/rembayung/waitroom/pkg/errors"
)

var (
	errVisitorIDRequired = pkgErrors.NewHTTPError(http.StatusBadRequest, "WTR001", "Visitor ID is required")
	errTicketNotFound    = pkgErrors.NewHTTPError(http.StatusNotFound, "WTR002", "Queue ticket not found")
	errTicketMalformed   = pkgErrors.NewHTTPError(http.StatusConflict, "WTR003", "Queue ticket was invalid and has been discarded")
	errNotYetAdmitted    = pkgErrors.NewHTTPError(http.StatusConflict, "WTR004", "Queue position has not reached zero")
	errSessionNotFound   = pkgErrors.NewHTTPError(http.StatusNotFound, "WTR005", "Admitted session not found")
	errSessionExpired    = pkgErrors.NewHTTPError(http.StatusGone, "WTR006", "Admitted session expired")
	errTokenMissing      = pkgErrors.NewHTTPError(http.StatusUnauthorized, "WTR007", "Access token is missing")
	errTokenInvalid      = pkgErrors.NewHTTPError(http.StatusUnauthorized, "WTR008", "Access token is invalid")
	errTokenRevoked      = pkgErrors.NewHTTPError(http.StatusUnauthorized, "WTR009", "Access has been revoked")
	errInvalidBody       = pkgErrors.NewHTTPError(http.StatusBadRequest, "WTR010", "Invalid request body")
	errStoreUnavailable  = pkgErrors.NewHTTPError(http.StatusServiceUnavailable, "WTR011", "Store unavailable")
)

func mapHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrVisitorIDRequired):
		return errVisitorIDRequired
	case errors.Is(err, service.ErrTicketNotFound):
		return errTicketNotFound
	case errors.Is(err, service.ErrTicketMalformed):
		return errTicketMalformed
	case errors.Is(err, service.ErrNotYetAdmitted):
		return errNotYetAdmitted
	case errors.Is(err, service.ErrSessionNotFound):
		return errSessionNotFound
	case errors.Is(err, service.ErrSessionExpired):
		return errSessionExpired
	case errors.Is(err, service.ErrTokenEmpty):
		return errTokenMissing
	case errors.Is(err, service.ErrTokenInvalidated):
		return errTokenRevoked
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenUnexpectedSignature),
		errors.Is(err, service.ErrTokenInvalidClaims):
		return errTokenInvalid
	default:
		return err
	}
}
