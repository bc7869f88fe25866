package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"blueprep_backend/internal/service"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TestController serves the operator API for the test lifecycle.
type TestController struct {
	Lifecycle *service.LifecycleService
	Boards    *service.LeaderboardService
	Publisher *service.ReportPublisher
	Sweeper   *service.ExpirySweeper
	Broadcast *service.BroadcastService
	Now       func() time.Time
}

func NewTestController(lifecycle *service.LifecycleService, lb *service.LeaderboardService, publisher *service.ReportPublisher, sweeper *service.ExpirySweeper, broadcast *service.BroadcastService) *TestController {
	return &TestController{
		Lifecycle: lifecycle,
		Boards:    lb,
		Publisher: publisher,
		Sweeper:   sweeper,
		Broadcast: broadcast,
		Now:       time.Now,
	}
}

type CreateTestReq struct {
	Title         string `json:"title"`
	NumQuestions  int    `json:"numQuestions" binding:"required"`
	DurationHours int    `json:"durationHours" binding:"required"`
}

type AnswerKeyReq struct {
	Key string `json:"key" binding:"required"`
}

type BroadcastReq struct {
	Text string `json:"text" binding:"required"`
}

// @Summary 创建测试
// @Description Create a draft test
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTestReq true "test"
// @Success 201 {object} util.Response
// @Router /api/admin/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateTestReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.Lifecycle.CreateTest(ctx.Request.Context(), user.UserID, req.Title, req.NumQuestions, req.DurationHours)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// @Summary 测试列表
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "max items" default(20)
// @Success 200 {object} util.Response
// @Router /api/admin/tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultListLimit)

	tests, err := c.Lifecycle.ListTests(ctx.Request.Context(), user.UserID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: tests, Total: int64(len(tests)), Page: 1, Limit: limit})
}

// @Summary 测试详情
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "test id"
// @Success 200 {object} util.Response
// @Router /api/admin/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	id, ok := parseTestID(ctx)
	if !ok {
		return
	}
	user := util.GetUserFromContext(ctx)

	test, err := c.Lifecycle.GetTest(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"test": test, "hasAnswerKey": test.HasAnswerKey()})
}

// @Summary 设置答案
// @Description Set or replace the answer key of a draft test
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "test id"
// @Param body body AnswerKeyReq true "answer key, e.g. 1a 2b 3c"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/tests/{id}/answer-key [put]
func (c *TestController) SetAnswerKey(ctx *gin.Context) {
	id, ok := parseTestID(ctx)
	if !ok {
		return
	}
	var req AnswerKeyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)

	test, err := c.Lifecycle.SetAnswerKey(ctx.Request.Context(), user.UserID, id, req.Key)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"test": test, "answerKey": test.Key()})
}

// @Summary 开始测试
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "test id"
// @Success 200 {object} util.Response
// @Router /api/admin/tests/{id}/activate [post]
func (c *TestController) Activate(ctx *gin.Context) {
	id, ok := parseTestID(ctx)
	if !ok {
		return
	}
	user := util.GetUserFromContext(ctx)

	test, err := c.Lifecycle.Activate(ctx.Request.Context(), user.UserID, id, c.Now())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// @Summary 结束测试
// @Description End an active test now and publish its leaderboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "test id"
// @Success 200 {object} util.Response
// @Router /api/admin/tests/{id}/end [post]
func (c *TestController) End(ctx *gin.Context) {
	id, ok := parseTestID(ctx)
	if !ok {
		return
	}
	user := util.GetUserFromContext(ctx)
	now := c.Now()

	changed, err := c.Lifecycle.EndTest(ctx.Request.Context(), user.UserID, id, now)
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := gin.H{"changed": changed}
	if changed && c.Publisher != nil {
		result, err := c.Publisher.Publish(ctx.Request.Context(), id, now)
		switch {
		case errors.Is(err, util.ErrNoSubmissions):
			resp["report"] = nil
		case err != nil:
			logger.Log.Error("Failed to publish report", zap.Uint("test_id", id), zap.Error(err))
			resp["reportError"] = err.Error()
		default:
			resp["report"] = result
		}
	}
	util.Success(ctx, resp)
}

// @Summary 排行榜
// @Description Download the leaderboard as html, csv or json
// @Tags admin
// @Produce json,html,text/csv
// @Security BearerAuth
// @Param id path int true "test id"
// @Param format query string false "html|csv|json" default(html)
// @Success 200 {object} util.Response
// @Router /api/admin/tests/{id}/leaderboard [get]
func (c *TestController) Leaderboard(ctx *gin.Context) {
	id, ok := parseTestID(ctx)
	if !ok {
		return
	}
	format := ctx.DefaultQuery("format", service.FormatHTML)

	switch format {
	case service.FormatJSON:
		lb, err := c.Boards.Build(ctx.Request.Context(), id, c.Now())
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, lb)
	case service.FormatHTML, service.FormatCSV:
		body, contentType, err := c.Boards.Render(ctx.Request.Context(), id, format, c.Now())
		if err != nil {
			respondError(ctx, err)
			return
		}
		filename := fmt.Sprintf("leaderboard_test_%d_%s.%s", id, c.Now().Format("1504"), format)
		ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		ctx.Data(http.StatusOK, contentType, body)
	default:
		util.BadRequest(ctx, "format must be html, csv or json")
	}
}

// @Summary 群发消息
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BroadcastReq true "message"
// @Success 200 {object} util.Response
// @Router /api/admin/broadcast [post]
func (c *TestController) BroadcastMessage(ctx *gin.Context) {
	var req BroadcastReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)

	result, err := c.Broadcast.Broadcast(ctx.Request.Context(), user.UserID, req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 立即执行过期扫描
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/sweep [post]
func (c *TestController) Sweep(ctx *gin.Context) {
	summary := c.Sweeper.RunOnce(ctx.Request.Context(), c.Now())
	util.Success(ctx, summary)
}
