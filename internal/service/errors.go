package service

import (
	"errors"

	"github.com/rembayung/waitroom/internal/models"
	repo "github.com/rembayung/waitroom/internal/repository/redis"
)

var (
	ErrVisitorIDRequired = errors.New("visitor id is required")

	ErrTicketNotFound  = errors.New("queue ticket not found")
	ErrTicketMalformed = models.ErrTicketMalformed
	ErrNotYetAdmitted  = errors.New("queue position has not reached zero")

	ErrSessionNotFound = errors.New("admitted session not found")
	ErrSessionExpired  = errors.New("admitted session expired")
	ErrSessionExists   = repo.ErrSessionExists

	ErrTokenEmpty               = errors.New("access token is empty")
	ErrTokenInvalid             = errors.New("access token is invalid")
	ErrTokenUnexpectedSignature = errors.New("unexpected token signing method")
	ErrTokenInvalidated         = errors.New("access token has been revoked")
	ErrTokenInvalidClaims       = errors.New("access token claims are invalid")
)
