package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/metrics"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"go.uber.org/zap"
)

// 列表分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SupplierPage 供应商分页结果
type SupplierPage struct {
	Items    []*model.Supplier `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SupplierAccount 供应商账户摘要
type SupplierAccount struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SupplierDetail 供应商详情
type SupplierDetail struct {
	Supplier     *model.Supplier      `json:"supplier"`
	Standing     model.Standing       `json:"standing"`
	Account      *SupplierAccount     `json:"account,omitempty"`
	AuditHistory []*model.AuditRecord `json:"audit_history"`
}

// AuditService 供应商审核服务
type AuditService interface {
	// Dispatch 执行审核网关命令，查询返回数据，变更返回 nil
	Dispatch(ctx context.Context, operatorID string, cmd AuditCommand) (any, error)
	ListSuppliers(ctx context.Context, cmd ListPendingCommand) (*SupplierPage, error)
	GetSupplierDetail(ctx context.Context, supplierID string) (*SupplierDetail, error)
	Approve(ctx context.Context, operatorID, supplierID string) error
	Reject(ctx context.Context, operatorID, supplierID, reason string) error
	Suspend(ctx context.Context, operatorID, supplierID, note string) error
	Restore(ctx context.Context, operatorID, supplierID string) error
}

type auditService struct {
	tx           repository.Transactor
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	userRepo     repository.UserRepository
	provisioner  ProvisioningService
	log          *zap.Logger
	now          func() time.Time
}

// AuditDeps 审核服务依赖
type AuditDeps struct {
	Tx           repository.Transactor
	SupplierRepo repository.SupplierRepository
	AuditRepo    repository.AuditRepository
	UserRepo     repository.UserRepository
	Provisioner  ProvisioningService
	Logger       *zap.Logger
}

// NewAuditService 创建审核服务
func NewAuditService(deps AuditDeps) AuditService {
	log := deps.Logger
	if log == nil {
		log = logger.L()
	}
	return &auditService{
		tx:           deps.Tx,
		supplierRepo: deps.SupplierRepo,
		auditRepo:    deps.AuditRepo,
		userRepo:     deps.UserRepo,
		provisioner:  deps.Provisioner,
		log:          log.Named("audit"),
		now:          time.Now,
	}
}

func (s *auditService) Dispatch(ctx context.Context, operatorID string, cmd AuditCommand) (any, error) {
	var data any
	var err error

	switch c := cmd.(type) {
	case ListPendingCommand:
		data, err = s.ListSuppliers(ctx, c)
	case GetSupplierDetailCommand:
		data, err = s.GetSupplierDetail(ctx, c.SupplierID)
	case ApproveCommand:
		err = s.Approve(ctx, operatorID, c.SupplierID)
	case RejectCommand:
		err = s.Reject(ctx, operatorID, c.SupplierID, c.Reason)
	case SuspendCommand:
		err = s.Suspend(ctx, operatorID, c.SupplierID, c.Reason)
	case RestoreCommand:
		err = s.Restore(ctx, operatorID, c.SupplierID)
	default:
		err = ErrUnknownAction
	}

	action := "unknown"
	if cmd != nil {
		action = cmd.Action()
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.AuditActions.WithLabelValues(action, result).Inc()

	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *auditService) ListSuppliers(ctx context.Context, cmd ListPendingCommand) (*SupplierPage, error) {
	filter := &repository.SupplierFilter{Keyword: cmd.Keyword}

	switch cmd.Status {
	case "":
		filter.Status = model.SupplierStatusPending
	case StatusAll:
	default:
		status := model.SupplierStatus(cmd.Status)
		if !status.Valid() {
			return nil, NewValidationError("status", "无效的状态")
		}
		filter.Status = status
	}

	if cmd.SupplierType != "" {
		if !cmd.SupplierType.Valid() {
			return nil, NewValidationError("supplier_type", ErrInvalidSupplierType.Error())
		}
		filter.SupplierType = cmd.SupplierType
	}

	page := &repository.Pagination{Page: cmd.Page, PageSize: cmd.PageSize}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = DefaultPageSize
	}
	if page.PageSize > MaxPageSize {
		page.PageSize = MaxPageSize
	}

	items, total, err := s.supplierRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Supplier{}
	}
	return &SupplierPage{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *auditService) GetSupplierDetail(ctx context.Context, supplierID string) (*SupplierDetail, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	history, err := s.auditRepo.ListByTarget(ctx, supplier.TableName(), supplier.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*model.AuditRecord{}
	}

	detail := &SupplierDetail{
		Supplier:     supplier,
		Standing:     supplier.Standing(),
		AuditHistory: history,
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(ctx, supplier.UserID); err == nil {
			detail.Account = &SupplierAccount{
				ID:          user.ID,
				Username:    user.Username,
				Email:       user.Email,
				DisplayName: user.DisplayName,
			}
		}
	}
	return detail, nil
}

// Approve 审核通过；已通过时只重新执行权限开通
func (s *auditService) Approve(ctx context.Context, operatorID, supplierID string) error {
	var supplier *model.Supplier
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		sup, err := s.supplierRepo.GetByIDForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		supplier = sup
		if sup.Status == model.SupplierStatusApproved {
			return nil
		}
		if err := sup.MarkApproved(operatorID, s.now()); err != nil {
			return err
		}
		if err := s.supplierRepo.Update(ctx, sup); err != nil {
			return err
		}
		return s.auditRepo.Create(ctx, model.NewSupplierAudit(sup, model.AuditStatusApproved, operatorID, nil))
	})
	if err != nil {
		return err
	}

	s.log.Info("供应商审核通过",
		zap.String("supplier_id", supplier.ID),
		zap.String("user_id", supplier.UserID),
		zap.String("operator_id", operatorID),
	)
	s.provision(ctx, supplier, operatorID)
	return nil
}

// provision 开通供应商终端权限，失败只记录，不影响审核结果
func (s *auditService) provision(ctx context.Context, supplier *model.Supplier, operatorID string) {
	err := s.provisioner.EnsureTerminalAccess(ctx, supplier.UserID, model.TerminalSupplier, operatorID)
	if err == nil {
		return
	}

	step := "unknown"
	var pe *ProvisioningError
	if errors.As(err, &pe) {
		step = pe.Step
	}
	metrics.ProvisioningFailures.WithLabelValues(string(model.TerminalSupplier), step).Inc()
	s.log.Error("供应商权限开通失败，可重新审核通过以重试",
		zap.String("supplier_id", supplier.ID),
		zap.String("user_id", supplier.UserID),
		zap.String("step", step),
		zap.Error(err),
	)
}

func (s *auditService) Reject(ctx context.Context, operatorID, supplierID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectReasonRequired
	}
	return s.decide(ctx, supplierID, func(sup *model.Supplier) (*model.AuditRecord, error) {
		if err := sup.MarkRejected(reason); err != nil {
			return nil, err
		}
		return model.NewSupplierAudit(sup, model.AuditStatusRejected, operatorID, &reason), nil
	})
}

func (s *auditService) Suspend(ctx context.Context, operatorID, supplierID, note string) error {
	note = strings.TrimSpace(note)
	return s.decide(ctx, supplierID, func(sup *model.Supplier) (*model.AuditRecord, error) {
		if err := sup.MarkSuspended(note); err != nil {
			return nil, err
		}
		var comment *string
		if note != "" {
			comment = &note
		}
		return model.NewSupplierAudit(sup, model.AuditStatusSuspended, operatorID, comment), nil
	})
}

// Restore 恢复合作，不重新开通权限
func (s *auditService) Restore(ctx context.Context, operatorID, supplierID string) error {
	return s.decide(ctx, supplierID, func(sup *model.Supplier) (*model.AuditRecord, error) {
		if err := sup.MarkRestored(); err != nil {
			return nil, err
		}
		comment := model.AuditCommentRestored
		return model.NewSupplierAudit(sup, model.AuditStatusApproved, operatorID, &comment), nil
	})
}

// decide 锁定记录，执行状态变更并写入审核记录，均在同一事务内
func (s *auditService) decide(ctx context.Context, supplierID string, mutate func(*model.Supplier) (*model.AuditRecord, error)) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		sup, err := s.supplierRepo.GetByIDForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		from := sup.Status
		record, err := mutate(sup)
		if err != nil {
			return err
		}
		if err := s.supplierRepo.Update(ctx, sup); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, record); err != nil {
			return err
		}
		s.log.Info("供应商状态变更",
			zap.String("supplier_id", sup.ID),
			zap.String("from", string(from)),
			zap.String("to", string(sup.Status)),
			zap.String("operator_id", record.ReviewerID),
		)
		return nil
	})
}
