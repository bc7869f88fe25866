package controller

import (
	"blueprep_backend/internal/service"
	"blueprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ParticipantController struct {
	Service *service.ParticipantService
}

func NewParticipantController(svc *service.ParticipantService) *ParticipantController {
	return &ParticipantController{Service: svc}
}

type RegisterReq struct {
	Username string `json:"username"`
	FullName string `json:"fullName" binding:"required"`
	Region   string `json:"region"`
}

// @Summary 注册参与者
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegisterReq true "profile"
// @Success 200 {object} util.Response
// @Router /api/participants/register [post]
func (c *ParticipantController) Register(ctx *gin.Context) {
	var req RegisterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)

	p, err := c.Service.Register(ctx.Request.Context(), user.UserID, req.Username, req.FullName, req.Region)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// @Summary 当前参与者
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/participants/me [get]
func (c *ParticipantController) Me(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	p, err := c.Service.Get(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}
