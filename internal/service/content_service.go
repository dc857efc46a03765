package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/logger"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContentService struct {
	ContentRepo    *repository.ContentRepository
	StorageService *StorageService
}

func NewContentService(contentRepo *repository.ContentRepository, storageService *StorageService) *ContentService {
	return &ContentService{
		ContentRepo:    contentRepo,
		StorageService: storageService,
	}
}

// ContentItemInput 新建时 Title、Type 必填；更新时 nil 字段保持不变
type ContentItemInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Solution    *string            `json:"solution"`
	Type        *model.ContentType `json:"type"`
	Active      *bool              `json:"active"`
	Theory      *string            `json:"theory"`
	Steps       *string            `json:"steps"`
	Example     *string            `json:"example"`
}

type LibraryItem struct {
	model.ContentItem
	Seen bool `json:"seen"`
}

type LibraryGroup struct {
	Type  model.ContentType `json:"type"`
	Items []LibraryItem     `json:"items"`
}

type LibraryView struct {
	Groups []LibraryGroup `json:"groups"`
	Total  int            `json:"total"`
}

// Library 启用条目按类型分组，附带当前用户是否看过
func (s *ContentService) Library(userID uint) (*LibraryView, error) {
	items, err := s.ContentRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	seen, err := s.ContentRepo.SeenMap(userID)
	if err != nil {
		return nil, fmt.Errorf("load view states: %w", err)
	}

	byType := make(map[model.ContentType][]LibraryItem, len(model.ContentTypes))
	for _, item := range items {
		byType[item.Type] = append(byType[item.Type], LibraryItem{ContentItem: item, Seen: seen[item.ID]})
	}

	view := &LibraryView{Groups: make([]LibraryGroup, 0, len(model.ContentTypes)), Total: len(items)}
	for _, t := range model.ContentTypes {
		group := byType[t]
		if group == nil {
			group = []LibraryItem{}
		}
		view.Groups = append(view.Groups, LibraryGroup{Type: t, Items: group})
	}
	return view, nil
}

func (s *ContentService) GetItem(id uint) (*model.ContentItem, error) {
	item, err := s.ContentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrContentItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ContentService) MarkViewed(userID, itemID uint) error {
	exists, err := s.ContentRepo.Exists(itemID)
	if err != nil {
		return fmt.Errorf("check content item: %w", err)
	}
	if !exists {
		return util.ErrContentItemNotFound
	}
	return s.ContentRepo.MarkViewed(userID, itemID)
}

func (s *ContentService) List(filter repository.ContentFilter) ([]model.ContentItem, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, util.ErrInvalidContentType
	}
	return s.ContentRepo.List(filter)
}

func (s *ContentService) Create(input ContentItemInput, authorID uint) (*model.ContentItem, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, util.InvalidInput("title is required")
	}
	if input.Type == nil {
		return nil, util.InvalidInput("type is required")
	}

	item := &model.ContentItem{Active: true, AuthorID: &authorID}
	if err := applyContentInput(item, input); err != nil {
		return nil, err
	}
	if err := s.ContentRepo.Create(item); err != nil {
		return nil, fmt.Errorf("create content item: %w", err)
	}

	logger.Log.Info("Content item created",
		zap.Uint("contentItemID", item.ID),
		zap.String("type", string(item.Type)),
		zap.Uint("authorID", authorID),
	)
	return item, nil
}

func (s *ContentService) Update(id uint, input ContentItemInput) (*model.ContentItem, error) {
	item, err := s.GetItem(id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, util.InvalidInput("title cannot be empty")
	}
	if err := applyContentInput(item, input); err != nil {
		return nil, err
	}
	if err := s.ContentRepo.Update(item); err != nil {
		return nil, fmt.Errorf("update content item: %w", err)
	}
	return item, nil
}

// Delete 级联删除详情、浏览记录和推理工作表
func (s *ContentService) Delete(ctx context.Context, id uint) error {
	item, err := s.GetItem(id)
	if err != nil {
		return err
	}
	if err := s.ContentRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrContentItemNotFound
		}
		return fmt.Errorf("delete content item: %w", err)
	}

	s.removeImage(ctx, item.ImageURL)
	logger.Log.Info("Content item deleted", zap.Uint("contentItemID", id))
	return nil
}

// UploadImage 校验扩展名和文件内容后上传，替换条目原有图片
func (s *ContentService) UploadImage(ctx context.Context, id uint, file *multipart.FileHeader) (*model.ContentItem, error) {
	item, err := s.GetItem(id)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(util.AllowedImageExtensions, ext) {
		return nil, util.ErrInvalidImageExt
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		return nil, util.InvalidInput("%v", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	objectName := util.ObjectName("content/"+strconv.FormatUint(uint64(id), 10), file.Filename)
	url, err := s.StorageService.Upload(ctx, objectName, src, file.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	previous := item.ImageURL
	item.ImageURL = url
	if err := s.ContentRepo.Update(item); err != nil {
		return nil, fmt.Errorf("save image url: %w", err)
	}
	s.removeImage(ctx, previous)
	return item, nil
}

func (s *ContentService) removeImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	objectName := objectNameFromURL(url)
	if err := s.StorageService.Delete(ctx, objectName); err != nil {
		logger.Log.Warn("Remove content image failed", zap.String("object", objectName), zap.Error(err))
	}
}

// objectNameFromURL 去掉 GetURL 添加的前缀
func objectNameFromURL(url string) string {
	idx := strings.Index(url, "content/")
	if idx < 0 {
		return strings.TrimPrefix(url, "/")
	}
	return url[idx:]
}

func applyContentInput(item *model.ContentItem, input ContentItemInput) error {
	if input.Type != nil {
		if !input.Type.Valid() {
			return util.ErrInvalidContentType
		}
		item.Type = *input.Type
	}
	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Solution != nil {
		item.Solution = strings.TrimSpace(*input.Solution)
	}
	if input.Active != nil {
		item.Active = *input.Active
	}

	// 练习与游戏的答案会被当作整数使用
	if item.Type != model.ContentTheory && item.Solution != "" {
		if v, err := strconv.Atoi(item.Solution); err != nil || !util.ValidSolution(v) {
			return util.ErrInvalidSolution
		}
	}

	if item.Type != model.ContentTheory {
		item.Detail = nil
		return nil
	}
	if item.Detail == nil {
		item.Detail = &model.ContentItemDetail{}
	}
	if input.Theory != nil {
		item.Detail.Theory = *input.Theory
	}
	if input.Steps != nil {
		item.Detail.Steps = *input.Steps
	}
	if input.Example != nil {
		item.Detail.Example = *input.Example
	}
	return nil
}
