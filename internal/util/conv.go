package util

import (
	"strconv"
	"strings"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseID 解析路径中的数字 ID，0 与非数字均视为非法
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || id == 0 {
		return 0, InvalidInput("invalid id %q", s)
	}
	return uint(id), nil
}

// MaxSolution 练习与游戏答案的绝对值上限
const MaxSolution = 1_000_000_000

func ValidSolution(v int) bool {
	return v >= -MaxSolution && v <= MaxSolution
}

// LenientInt 宽松解析整数：接受 JSON 数字或数字字符串，其余情况 ok=false
func LenientInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
