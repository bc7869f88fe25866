package controller

import (
	"errors"
	"net/http"

	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/service"
	"blueprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var rejectionStatus = map[util.RejectionReason]int{
	util.ReasonUnregistered:   http.StatusForbidden,
	util.ReasonUnknownTest:    http.StatusNotFound,
	util.ReasonNotActive:      http.StatusConflict,
	util.ReasonMissingKey:     http.StatusConflict,
	util.ReasonWindowExpired:  http.StatusGone,
	util.ReasonLengthMismatch: http.StatusUnprocessableEntity,
	util.ReasonDuplicate:      http.StatusConflict,
}

type rejectionBody struct {
	Reason   util.RejectionReason `json:"reason"`
	Expected int                  `json:"expected,omitempty"`
	Actual   int                  `json:"actual,omitempty"`
}

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var rej *util.RejectionError
	if errors.As(err, &rej) {
		code, ok := rejectionStatus[rej.Reason]
		if !ok {
			code = http.StatusBadRequest
		}
		ctx.JSON(code, util.Response{
			Code:    code,
			Message: rej.Error(),
			Data:    rejectionBody{Reason: rej.Reason, Expected: rej.Expected, Actual: rej.Actual},
		})
		return
	}

	switch {
	case errors.Is(err, util.ErrNotOperator), errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrTestNotFound),
		errors.Is(err, util.ErrSubmissionMissing),
		errors.Is(err, util.ErrNoSubmissions),
		errors.Is(err, repository.ErrNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrInvalidTransition), errors.Is(err, util.ErrMissingKey):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidTest),
		errors.Is(err, util.ErrBadSubmission),
		errors.Is(err, service.ErrEmptyBroadcast),
		errors.Is(err, service.ErrFullNameRequired):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUnknownOutcome):
		util.ServiceUnavailable(ctx, util.ErrUnknownOutcome.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseTestID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid test id")
		return 0, false
	}
	return id, true
}
