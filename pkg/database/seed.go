package database

import (
	"errors"
	"fmt"
	"log"
	"math_missions_backend/internal/model"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile 对应 configs/seed.yaml
type SeedFile struct {
	Skills []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"skills"`
	Missions []struct {
		Title         string `yaml:"title"`
		Description   string `yaml:"description"`
		OperationType string `yaml:"operation_type"`
		Skill         string `yaml:"skill"`
		Active        *bool  `yaml:"active"`
	} `yaml:"missions"`
	ContentItems []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Solution    string `yaml:"solution"`
		Type        string `yaml:"type"`
		Active      *bool  `yaml:"active"`
		Theory      string `yaml:"theory"`
		Steps       string `yaml:"steps"`
		Example     string `yaml:"example"`
	} `yaml:"content_items"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// SeedCatalog 仅在对应表为空时写入技能、任务和图书馆条目
func SeedCatalog(db *gorm.DB, seed *SeedFile) error {
	return db.Transaction(func(tx *gorm.DB) error {
		skillIDs := make(map[string]uint)

		var skillCount int64
		tx.Model(&model.Skill{}).Count(&skillCount)
		if skillCount == 0 {
			for _, s := range seed.Skills {
				skill := &model.Skill{Name: s.Name, Description: s.Description}
				if err := tx.Create(skill).Error; err != nil {
					return err
				}
			}
		}
		var skills []model.Skill
		if err := tx.Find(&skills).Error; err != nil {
			return err
		}
		for _, s := range skills {
			skillIDs[s.Name] = s.ID
		}

		var missionCount int64
		tx.Model(&model.Mission{}).Count(&missionCount)
		if missionCount == 0 {
			// 创建时间逐条递增，保证按创建顺序排序时与种子文件顺序一致
			base := time.Now().Add(-time.Duration(len(seed.Missions)) * time.Second)
			for i, m := range seed.Missions {
				op := model.OperationType(m.OperationType)
				if !op.Valid() {
					return fmt.Errorf("seed mission %q: unknown operation type %q", m.Title, m.OperationType)
				}
				mission := &model.Mission{
					Title:         m.Title,
					Description:   m.Description,
					OperationType: op,
					Active:        boolOr(m.Active, true),
					CreatedAt:     base.Add(time.Duration(i) * time.Second),
				}
				if id, ok := skillIDs[m.Skill]; ok {
					mission.SkillID = &id
				}
				if err := tx.Create(mission).Error; err != nil {
					return err
				}
			}
		}

		var contentCount int64
		tx.Model(&model.ContentItem{}).Count(&contentCount)
		if contentCount == 0 {
			for _, c := range seed.ContentItems {
				t := model.ContentType(c.Type)
				if !t.Valid() {
					return fmt.Errorf("seed content item %q: unknown type %q", c.Title, c.Type)
				}
				item := &model.ContentItem{
					Title:       c.Title,
					Description: c.Description,
					Solution:    c.Solution,
					Type:        t,
					Active:      boolOr(c.Active, true),
				}
				if err := tx.Create(item).Error; err != nil {
					return err
				}
				if t == model.ContentTheory {
					detail := &model.ContentItemDetail{
						ContentItemID: item.ID,
						Theory:        c.Theory,
						Steps:         c.Steps,
						Example:       c.Example,
					}
					if err := tx.Create(detail).Error; err != nil {
						return err
					}
				}
			}
		}

		return nil
	})
}

// EnsureAdmin 没有管理员时创建默认管理员
func EnsureAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var admin model.User
	err := db.Where("role = ?", model.Admin).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin = model.User{
		Name:     "Administrador",
		Email:    email,
		Password: string(hashed),
		Role:     model.Admin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Default admin %s created", email)
	return nil
}
