package util

import (
	"math_missions_backend/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 在 gin 的校验引擎上注册业务校验规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("attempt_status", validateAttemptStatus)
}

func validateAttemptStatus(fl validator.FieldLevel) bool {
	return model.AttemptStatus(fl.Field().String()).Valid()
}
