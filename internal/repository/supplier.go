package repository

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSupplierNotFound = errors.New("供应商不存在")
	ErrSupplierExists   = errors.New("该账户已提交过供应商注册")
)

// SupplierRepository 供应商仓库接口
type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	GetByID(ctx context.Context, id string) (*model.Supplier, error)
	// GetByIDForUpdate 加行锁读取，需在事务中调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Supplier, error)
	GetByUserID(ctx context.Context, userID string) (*model.Supplier, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	List(ctx context.Context, filter *SupplierFilter, page *Pagination) ([]*model.Supplier, int64, error)
}

// SupplierFilter 供应商查询过滤器
type SupplierFilter struct {
	Status       model.SupplierStatus // 为空表示全部
	SupplierType model.SupplierType
	Keyword      string // 匹配公司名、联系人、信用代码
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository 创建供应商仓库
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

// Create 创建供应商，user_id 唯一索引冲突时返回 ErrSupplierExists
func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	if err := conn(ctx, r.db).Create(supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSupplierExists
		}
		return err
	}
	return nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	return r.first(conn(ctx, r.db), "id = ?", id)
}

func (r *supplierRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Supplier, error) {
	return r.first(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *supplierRepository) GetByUserID(ctx context.Context, userID string) (*model.Supplier, error) {
	return r.first(conn(ctx, r.db), "user_id = ?", userID)
}

func (r *supplierRepository) first(db *gorm.DB, query string, arg any) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := db.Where(query, arg).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	result := conn(ctx, r.db).Save(supplier)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *supplierRepository) List(ctx context.Context, filter *SupplierFilter, page *Pagination) ([]*model.Supplier, int64, error) {
	var suppliers []*model.Supplier
	var total int64
	query := conn(ctx, r.db).Model(&model.Supplier{})
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.SupplierType != "" {
			query = query.Where("supplier_type = ?", filter.SupplierType)
		}
		if filter.Keyword != "" {
			like := "%" + filter.Keyword + "%"
			query = query.Where("company_name LIKE ? OR contact_name LIKE ? OR credit_code LIKE ?", like, like, like)
		}
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(query, page).Order("created_at DESC").Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}
