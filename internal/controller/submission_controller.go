package controller

import (
	"time"

	"blueprep_backend/internal/service"
	"blueprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	Service *service.SubmissionService
	Now     func() time.Time
}

func NewSubmissionController(svc *service.SubmissionService) *SubmissionController {
	return &SubmissionController{Service: svc, Now: time.Now}
}

// SubmitReq carries either the raw "<test_id>*<answers>" text or the
// already split pair.
type SubmitReq struct {
	Text    string `json:"text"`
	TestID  uint   `json:"testId"`
	Answers string `json:"answers"`
}

// @Summary 提交答案
// @Description Submit answers once per test. Accepts {"text":"12*1a2b3c"} or {"testId":12,"answers":"1a2b3c"}.
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitReq true "answers"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 410 {object} util.Response
// @Failure 422 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	now := c.Now()
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	testID, answers := req.TestID, req.Answers
	if req.Text != "" {
		var err error
		testID, answers, err = service.ParseSubmissionText(req.Text)
		if err != nil {
			respondError(ctx, err)
			return
		}
	}
	if testID == 0 {
		respondError(ctx, util.ErrBadSubmission)
		return
	}

	out, err := c.Service.Submit(ctx.Request.Context(), user.UserID, testID, answers, now)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{
		"testId":  out.TestID,
		"correct": out.Result.Correct,
		"wrong":   out.Result.Wrong,
		"percent": out.Result.Percent,
	})
}

// @Summary 我的成绩
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param testId path int true "test id"
// @Success 200 {object} util.Response
// @Router /api/submissions/{testId} [get]
func (c *SubmissionController) GetMine(ctx *gin.Context) {
	testID := util.MustParseUint(ctx.Param("testId"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}
	user := util.GetUserFromContext(ctx)

	sub, err := c.Service.GetSubmission(ctx.Request.Context(), user.UserID, testID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
