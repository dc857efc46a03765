package controller

import (
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

type markViewedRequest struct {
	ContentItemID uint `json:"contentItemId" binding:"required"`
}

// @Summary 图书馆
// @Description 启用的练习、游戏、内容按类型分组，附带当前用户是否看过
// @Tags 图书馆
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.LibraryView}
// @Router /library [get]
func (c *ContentController) Library(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ContentService.Library(user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 图书馆条目详情
// @Tags 图书馆
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Success 200 {object} util.Response{data=model.ContentItem}
// @Failure 404 {object} util.Response
// @Router /library/{id} [get]
func (c *ContentController) GetItem(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	item, err := c.ContentService.GetItem(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// @Summary 标记条目已看
// @Tags 图书馆
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body markViewedRequest true "条目"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /library/viewed [post]
func (c *ContentController) MarkViewed(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req markViewedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ContentService.MarkViewed(user.UserID, req.ContentItemID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ok": true})
}

// @Summary 条目管理列表
// @Tags 图书馆管理
// @Produce json
// @Security BearerAuth
// @Param q query string false "标题或描述关键字"
// @Param type query string false "类型" Enums(Practice, Game, Content)
// @Param active query bool false "是否启用"
// @Success 200 {object} util.Response{data=[]model.ContentItem}
// @Router /teacher/content-items [get]
func (c *ContentController) ListItems(ctx *gin.Context) {
	filter := repository.ContentFilter{
		Query: ctx.Query("q"),
		Type:  model.ContentType(ctx.Query("type")),
	}
	if raw := ctx.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			util.BadRequest(ctx, "active must be a boolean")
			return
		}
		filter.Active = &active
	}

	items, err := c.ContentService.List(filter)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 新建条目
// @Tags 图书馆管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ContentItemInput true "条目"
// @Success 201 {object} util.Response{data=model.ContentItem}
// @Failure 400 {object} util.Response
// @Router /teacher/content-items [post]
func (c *ContentController) CreateItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.ContentItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.ContentService.Create(input, user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, item)
}

// @Summary 更新条目
// @Description 只更新请求中出现的字段
// @Tags 图书馆管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Param body body service.ContentItemInput true "条目"
// @Success 200 {object} util.Response{data=model.ContentItem}
// @Failure 404 {object} util.Response
// @Router /teacher/content-items/{id} [patch]
func (c *ContentController) UpdateItem(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	var input service.ContentItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.ContentService.Update(id, input)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// @Summary 删除条目
// @Description 同时删除详情、浏览记录和该条目的工作表
// @Tags 图书馆管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /teacher/content-items/{id} [delete]
func (c *ContentController) DeleteItem(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if err := c.ContentService.Delete(ctx.Request.Context(), id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ok": true})
}

// @Summary 上传条目图片
// @Tags 图书馆管理
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Param file formData file true "图片"
// @Success 200 {object} util.Response{data=model.ContentItem}
// @Failure 400 {object} util.Response
// @Router /teacher/content-items/{id}/image [post]
func (c *ContentController) UploadImage(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	item, err := c.ContentService.UploadImage(ctx.Request.Context(), id, file)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}
