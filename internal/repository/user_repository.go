package repository

import (
	"math_missions_backend/internal/model"
	"strconv"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).
		Error
}

// ListActiveStudents 未禁用的学生，query 按姓名模糊或 ID 精确匹配
func (r *UserRepository) ListActiveStudents(query string) ([]model.User, error) {
	var users []model.User
	db := r.DB.Where("role = ? AND disabled = ?", model.Student, false)
	if query != "" {
		if id, err := strconv.ParseUint(query, 10, 32); err == nil {
			db = db.Where("(name LIKE ? OR id = ?)", "%"+query+"%", id)
		} else {
			db = db.Where("name LIKE ?", "%"+query+"%")
		}
	}
	err := db.Order("name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) CountByRole() (map[model.UserRole]int64, error) {
	var rows []struct {
		Role  model.UserRole
		Total int64
	}
	err := r.DB.Model(&model.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.UserRole]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
