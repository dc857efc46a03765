package service

import (
	"errors"
	"fmt"
	"math_missions_backend/internal/config"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/logger"
	"math_missions_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReasoningLogService struct {
	LogRepo     *repository.ReasoningLogRepository
	MissionRepo *repository.MissionRepository
	ContentRepo *repository.ContentRepository
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.AttemptRepository

	maxConfidence int
}

func NewReasoningLogService(
	logRepo *repository.ReasoningLogRepository,
	missionRepo *repository.MissionRepository,
	contentRepo *repository.ContentRepository,
	userRepo *repository.UserRepository,
	attemptRepo *repository.AttemptRepository,
	cfg *config.Config,
) *ReasoningLogService {
	return &ReasoningLogService{
		LogRepo:       logRepo,
		MissionRepo:   missionRepo,
		ContentRepo:   contentRepo,
		UserRepo:      userRepo,
		AttemptRepo:   attemptRepo,
		maxConfidence: cfg.Polya.MaxConfidence,
	}
}

// ReasoningLogInput 工作表提交内容，缺省的文本字段视为空串
type ReasoningLogInput struct {
	Question            string `json:"question"`
	KnownData           string `json:"knownData"`
	Unknowns            string `json:"unknowns"`
	Representation      string `json:"representation"`
	MainStrategy        string `json:"mainStrategy"`
	Plan                string `json:"plan"`
	Development         string `json:"development"`
	IntermediateResults string `json:"intermediateResults"`
	Review              string `json:"review"`
	AlternativeCheck    string `json:"alternativeCheck"`
	Conclusion          string `json:"conclusion"`

	TacticSimilar   bool `json:"tacticSimilar"`
	TacticDecompose bool `json:"tacticDecompose"`
	TacticEquations bool `json:"tacticEquations"`
	TacticFormula   bool `json:"tacticFormula"`

	// 数字或数字字符串，无法解析时保留原值
	Confidence interface{} `json:"confidence" swaggertype:"string"`
	SubValues  []string    `json:"subValues"`
}

type Tactics struct {
	Similar   bool `json:"similar"`
	Decompose bool `json:"decompose"`
	Equations bool `json:"equations"`
	Formula   bool `json:"formula"`
}

// ReasoningLogView 工作表读取结果，Tactics 只在任务工作表上出现
type ReasoningLogView struct {
	ID                  string           `json:"id"`
	TargetKind          model.TargetKind `json:"targetKind"`
	TargetID            uint             `json:"targetId"`
	Question            string           `json:"question"`
	KnownData           string           `json:"knownData"`
	Unknowns            string           `json:"unknowns"`
	Representation      string           `json:"representation"`
	MainStrategy        string           `json:"mainStrategy"`
	Plan                string           `json:"plan"`
	Development         string           `json:"development"`
	IntermediateResults string           `json:"intermediateResults"`
	Review              string           `json:"review"`
	AlternativeCheck    string           `json:"alternativeCheck"`
	Conclusion          string           `json:"conclusion"`
	Tactics             *Tactics         `json:"tactics,omitempty"`
	Confidence          *int             `json:"confidence"`
	SubValues           []string         `json:"subValues"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// StudentWorksheet 教师查看某学生在某任务上的工作表与最近尝试
type StudentWorksheet struct {
	Student model.User            `json:"student"`
	Mission model.Mission         `json:"mission"`
	Log     *ReasoningLogView     `json:"log"`
	Attempt *model.MissionAttempt `json:"attempt"`
}

// ParseConfidence 整数且位于 [1, max] 才有效
func ParseConfidence(raw interface{}, max int) (int, bool) {
	v, ok := util.LenientInt(raw)
	if !ok || v < 1 || v > max {
		return 0, false
	}
	return v, true
}

// NonEmptyValues 丢弃空串，保留原顺序
func NonEmptyValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SaveLog 写入工作表并整体替换加数列表，返回保存后的视图
func (s *ReasoningLogService) SaveLog(userID uint, target model.ReasoningTarget, input ReasoningLogInput) (*ReasoningLogView, error) {
	if err := s.ensureTarget(target); err != nil {
		return nil, err
	}

	log := &model.ReasoningLog{
		UserID:              userID,
		TargetKind:          target.Kind,
		TargetID:            target.ID,
		Question:            input.Question,
		KnownData:           input.KnownData,
		Unknowns:            input.Unknowns,
		Representation:      input.Representation,
		MainStrategy:        input.MainStrategy,
		Plan:                input.Plan,
		Development:         input.Development,
		IntermediateResults: input.IntermediateResults,
		Review:              input.Review,
		AlternativeCheck:    input.AlternativeCheck,
		Conclusion:          input.Conclusion,
	}
	if target.Kind == model.TargetMission {
		log.TacticSimilar = input.TacticSimilar
		log.TacticDecompose = input.TacticDecompose
		log.TacticEquations = input.TacticEquations
		log.TacticFormula = input.TacticFormula
	}

	confidence, ok := ParseConfidence(input.Confidence, s.maxConfidence)
	if ok {
		log.Confidence = &confidence
	} else if input.Confidence != nil {
		logger.Log.Debug("Ignoring unparseable confidence",
			zap.Uint("userID", userID),
			zap.Any("confidence", input.Confidence),
		)
	}

	if err := s.LogRepo.Save(log, ok, NonEmptyValues(input.SubValues)); err != nil {
		return nil, fmt.Errorf("save reasoning log: %w", err)
	}

	monitoring.ReasoningLogsSaved.WithLabelValues(string(target.Kind)).Inc()
	logger.Log.Info("Reasoning log saved",
		zap.Uint("userID", userID),
		zap.String("targetKind", string(target.Kind)),
		zap.Uint("targetID", target.ID),
		zap.String("logID", log.ID),
	)

	return s.FetchLog(userID, target)
}

// ReplaceSubValues 删除全部旧加数，按顺序写入非空值
func (s *ReasoningLogService) ReplaceSubValues(logID string, values []string) error {
	exists, err := s.LogRepo.Exists(logID)
	if err != nil {
		return fmt.Errorf("check reasoning log: %w", err)
	}
	if !exists {
		return util.ErrReasoningLogNotFound
	}
	return s.LogRepo.ReplaceSubValues(logID, NonEmptyValues(values))
}

// FetchLog 首次访问没有记录是常态，返回 nil, nil
func (s *ReasoningLogService) FetchLog(userID uint, target model.ReasoningTarget) (*ReasoningLogView, error) {
	log, err := s.LogRepo.FindByUserAndTarget(userID, target)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reasoning log: %w", err)
	}
	return toReasoningLogView(log), nil
}

// LoadForTarget 校验目标存在后读取工作表
func (s *ReasoningLogService) LoadForTarget(userID uint, target model.ReasoningTarget) (*ReasoningLogView, error) {
	if err := s.ensureTarget(target); err != nil {
		return nil, err
	}
	return s.FetchLog(userID, target)
}

func (s *ReasoningLogService) StudentWorksheet(missionID, studentID uint) (*StudentWorksheet, error) {
	mission, err := s.MissionRepo.FindByID(missionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMissionNotFound
		}
		return nil, err
	}
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	sheet := &StudentWorksheet{Student: *student, Mission: *mission}
	if sheet.Log, err = s.FetchLog(studentID, model.MissionTarget(missionID)); err != nil {
		return nil, err
	}

	attempt, err := s.AttemptRepo.FindLatest(studentID, missionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	sheet.Attempt = attempt
	return sheet, nil
}

func (s *ReasoningLogService) ensureTarget(target model.ReasoningTarget) error {
	switch target.Kind {
	case model.TargetMission:
		exists, err := s.MissionRepo.Exists(target.ID)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrMissionNotFound
		}
	case model.TargetContent:
		exists, err := s.ContentRepo.Exists(target.ID)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrContentItemNotFound
		}
	default:
		return util.InvalidInput("unknown reasoning log target %q", target.Kind)
	}
	return nil
}

func toReasoningLogView(log *model.ReasoningLog) *ReasoningLogView {
	view := &ReasoningLogView{
		ID:                  log.ID,
		TargetKind:          log.TargetKind,
		TargetID:            log.TargetID,
		Question:            log.Question,
		KnownData:           log.KnownData,
		Unknowns:            log.Unknowns,
		Representation:      log.Representation,
		MainStrategy:        log.MainStrategy,
		Plan:                log.Plan,
		Development:         log.Development,
		IntermediateResults: log.IntermediateResults,
		Review:              log.Review,
		AlternativeCheck:    log.AlternativeCheck,
		Conclusion:          log.Conclusion,
		Confidence:          log.Confidence,
		SubValues:           make([]string, 0, len(log.SubValues)),
		CreatedAt:           log.CreatedAt,
		UpdatedAt:           log.UpdatedAt,
	}
	if log.TargetKind == model.TargetMission {
		view.Tactics = &Tactics{
			Similar:   log.TacticSimilar,
			Decompose: log.TacticDecompose,
			Equations: log.TacticEquations,
			Formula:   log.TacticFormula,
		}
	}
	for _, sv := range log.SubValues {
		view.SubValues = append(view.SubValues, sv.Value)
	}
	return view
}
