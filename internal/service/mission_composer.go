package service

import "math_missions_backend/internal/model"

// ComposeOrderedMissions 按运算类型优先级（加、减、乘、除）每类最多取 perTypeCap 个，
// 其余启用任务按创建时间追加在后。missions 需已按创建时间升序排列。
func ComposeOrderedMissions(missions []model.Mission, perTypeCap int) []model.Mission {
	ordered := make([]model.Mission, 0, len(missions))
	picked := make(map[uint]bool, len(missions))

	for _, op := range model.OperationPriority {
		taken := 0
		for _, m := range missions {
			if taken >= perTypeCap {
				break
			}
			if !m.Active || m.OperationType != op || picked[m.ID] {
				continue
			}
			ordered = append(ordered, m)
			picked[m.ID] = true
			taken++
		}
	}

	for _, m := range missions {
		if m.Active && !picked[m.ID] {
			ordered = append(ordered, m)
			picked[m.ID] = true
		}
	}
	return ordered
}
