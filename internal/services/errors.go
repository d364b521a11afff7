package services

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons. Each maps onto one of four kinds: validation (400),
// not found (404), conflict (409) and forbidden (403).
const (
	ReasonValidation      = "VALIDATION_FAILED"
	ReasonArticleNotFound = "ARTICLE_NOT_FOUND"
	ReasonCommentNotFound = "COMMENT_NOT_FOUND"
	ReasonUserNotFound    = "USER_NOT_FOUND"
	ReasonUsernameTaken   = "USERNAME_TAKEN"
	ReasonEmailTaken      = "EMAIL_TAKEN"
	ReasonAdminRequired   = "ADMIN_REQUIRED"
	ReasonBadCredentials  = "BAD_CREDENTIALS"
	ReasonUploadRejected  = "UPLOAD_REJECTED"
	ReasonBadTransition   = "INVALID_TRANSITION"
)

func validationError(format string, args ...interface{}) *errors.Error {
	return errors.BadRequest(ReasonValidation, fmt.Sprintf(format, args...))
}

func articleNotFound(id uint) *errors.Error {
	return errors.NotFound(ReasonArticleNotFound, fmt.Sprintf("article %d not found", id))
}

func commentNotFound(id uint) *errors.Error {
	return errors.NotFound(ReasonCommentNotFound, fmt.Sprintf("comment %d not found", id))
}

func adminRequired() *errors.Error {
	return errors.Forbidden(ReasonAdminRequired, "admin access required")
}

func IsValidation(err error) bool { return errors.IsBadRequest(err) }
func IsNotFound(err error) bool   { return errors.IsNotFound(err) }
func IsConflict(err error) bool   { return errors.IsConflict(err) }
func IsForbidden(err error) bool  { return errors.IsForbidden(err) }

// Message extracts the user-facing text of a service error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return errors.FromError(err).Message
}

func IsUnauthorized(err error) bool { return errors.IsUnauthorized(err) }

// StatusCode is the HTTP status a service error maps to; 500 for anything untyped.
func StatusCode(err error) int {
	return int(errors.FromError(err).Code)
}
