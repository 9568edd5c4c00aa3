package repository

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMenuNotFound = errors.New("菜单不存在")
	ErrMenuExists   = errors.New("菜单标识已存在")
)

// MenuRepository 菜单仓库接口
type MenuRepository interface {
	Create(ctx context.Context, menu *model.Menu) error
	// Seed 按 (terminal, code) 插入内置菜单，已存在的跳过
	Seed(ctx context.Context, menus []model.Menu) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Menu, error)
	Update(ctx context.Context, menu *model.Menu) error
	List(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error)
	ListActiveByTerminal(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error)
}

type menuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建菜单仓库
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) Create(ctx context.Context, menu *model.Menu) error {
	if err := conn(ctx, r.db).Create(menu).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMenuExists
		}
		return err
	}
	return nil
}

func (r *menuRepository) Seed(ctx context.Context, menus []model.Menu) (int64, error) {
	if len(menus) == 0 {
		return 0, nil
	}
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "terminal"}, {Name: "code"}}, DoNothing: true}).
		Create(&menus)
	return result.RowsAffected, result.Error
}

func (r *menuRepository) GetByID(ctx context.Context, id string) (*model.Menu, error) {
	var menu model.Menu
	if err := conn(ctx, r.db).Where("id = ?", id).First(&menu).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	return &menu, nil
}

func (r *menuRepository) Update(ctx context.Context, menu *model.Menu) error {
	result := conn(ctx, r.db).Save(menu)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrMenuExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMenuNotFound
	}
	return nil
}

func (r *menuRepository) List(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error) {
	var menus []*model.Menu
	query := conn(ctx, r.db).Model(&model.Menu{})
	if terminal != "" {
		query = query.Where("terminal = ?", terminal)
	}
	err := query.Order("terminal ASC, sort_order ASC").Find(&menus).Error
	return menus, err
}

func (r *menuRepository) ListActiveByTerminal(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error) {
	var menus []*model.Menu
	err := conn(ctx, r.db).
		Where("terminal = ? AND is_active = ?", terminal, true).
		Order("sort_order ASC").
		Find(&menus).Error
	return menus, err
}
