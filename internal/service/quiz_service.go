package service

import (
	"math"
	"math/rand/v2"
	"math_missions_backend/internal/config"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/monitoring"
	"strings"
	"sync"
	"time"
)

type QuizService struct {
	mu      sync.Mutex
	rng     *rand.Rand
	spread  int
	choices int
}

func NewQuizService(cfg *config.Config) *QuizService {
	seed := uint64(time.Now().UnixNano())
	return NewQuizServiceWithRand(cfg, rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// NewQuizServiceWithRand 测试注入固定种子
func NewQuizServiceWithRand(cfg *config.Config, rng *rand.Rand) *QuizService {
	return &QuizService{
		rng:     rng,
		spread:  cfg.Quiz.Spread,
		choices: cfg.Quiz.Choices,
	}
}

type QuizChoices struct {
	Choices      []int `json:"choices"`
	CorrectIndex int   `json:"correctIndex"`
}

type QuizQuestion struct {
	Title             string              `json:"title"`
	Question          string              `json:"question"`
	Solution          int                 `json:"solution"`
	Operation         model.OperationType `json:"operation"`
	OperationDetected bool                `json:"operationDetected"`
	QuizChoices
}

type PracticeView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    int    `json:"solution"`
}

const (
	defaultQuizTitle     = "Juego de operaciones"
	defaultPracticeTitle = "Práctica de operaciones"
)

// GenerateChoices 以正确答案为中心在 [max(1, c-spread), c+spread] 内随机取干扰项，
// 凑够互不相同的选项后打乱，CorrectIndex 指向正确答案
func (s *QuizService) GenerateChoices(correct int) QuizChoices {
	lo := 1
	if correct > 1+s.spread {
		lo = correct - s.spread
	}
	hi := math.MaxInt
	if correct <= math.MaxInt-s.spread {
		hi = correct + s.spread
	}
	// 正确答案过小时区间可能为空或不足，向上平移保证候选数量
	if hi-lo+1 < s.choices {
		hi = lo + s.spread
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool := []int{correct}
	seen := map[int]bool{correct: true}
	for len(pool) < s.choices {
		v := lo + s.rng.IntN(hi-lo+1)
		if !seen[v] {
			seen[v] = true
			pool = append(pool, v)
		}
	}

	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	idx := 0
	for i, v := range pool {
		if v == correct {
			idx = i
			break
		}
	}
	return QuizChoices{Choices: pool, CorrectIndex: idx}
}

var operationKeywords = []struct {
	op       model.OperationType
	keywords []string
}{
	{model.OperationSum, []string{"suma"}},
	{model.OperationSubtract, []string{"resta"}},
	{model.OperationMultiply, []string{"multiplicación", "multiplicacion"}},
	{model.OperationDivide, []string{"división", "division"}},
}

// DetectOperation 按描述中的关键词识别运算类型，未识别时按加法处理。
// 识别结果只用于展示，不影响正确答案。
func DetectOperation(description string) (model.OperationType, bool) {
	text := strings.ToLower(description)
	for _, entry := range operationKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.op, true
			}
		}
	}
	return model.OperationSum, false
}

// parseSolution 接受整数或整数字符串，绝对值不超过 util.MaxSolution
func parseSolution(raw interface{}) (int, error) {
	v, ok := util.LenientInt(raw)
	if !ok || !util.ValidSolution(v) {
		return 0, util.ErrInvalidSolution
	}
	return v, nil
}

// BuildQuestion 题干即描述，正确答案始终是调用方给出的 solution
func (s *QuizService) BuildQuestion(title, description string, solution interface{}) (*QuizQuestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, util.InvalidInput("description is required")
	}
	correct, err := parseSolution(solution)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = defaultQuizTitle
	}

	op, detected := DetectOperation(description)
	monitoring.QuizzesGenerated.WithLabelValues(string(op)).Inc()

	return &QuizQuestion{
		Title:             title,
		Question:          description,
		Solution:          correct,
		Operation:         op,
		OperationDetected: detected,
		QuizChoices:       s.GenerateChoices(correct),
	}, nil
}

func (s *QuizService) Practice(title, description, solution string) (*PracticeView, error) {
	correct, err := parseSolution(solution)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = defaultPracticeTitle
	}
	return &PracticeView{Title: title, Description: description, Solution: correct}, nil
}
