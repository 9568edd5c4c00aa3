package model

import (
	"errors"
	"time"
)

// SupplierType 供应商类型，注册后不可修改
type SupplierType string

const (
	SupplierTypeEnterprise SupplierType = "enterprise" // 国内企业
	SupplierTypeOverseas   SupplierType = "overseas"   // 境外企业
	SupplierTypeIndividual SupplierType = "individual" // 个人
)

// Valid 检查供应商类型是否合法
func (t SupplierType) Valid() bool {
	switch t {
	case SupplierTypeEnterprise, SupplierTypeOverseas, SupplierTypeIndividual:
		return true
	}
	return false
}

// SupplierStatus 供应商审核状态
type SupplierStatus string

const (
	SupplierStatusPending   SupplierStatus = "pending"   // 待审核
	SupplierStatusApproved  SupplierStatus = "approved"  // 已通过
	SupplierStatusRejected  SupplierStatus = "rejected"  // 已驳回
	SupplierStatusSuspended SupplierStatus = "suspended" // 已暂停
)

// Valid 检查状态是否合法
func (s SupplierStatus) Valid() bool {
	switch s {
	case SupplierStatusPending, SupplierStatusApproved, SupplierStatusRejected, SupplierStatusSuspended:
		return true
	}
	return false
}

// ErrInvalidTransition 当前状态不允许该操作
var ErrInvalidTransition = errors.New("当前状态不允许该操作")

// transitions 允许的状态迁移，rejected 为终态
var transitions = map[SupplierStatus][]SupplierStatus{
	SupplierStatusPending:   {SupplierStatusApproved, SupplierStatusRejected},
	SupplierStatusApproved:  {SupplierStatusSuspended},
	SupplierStatusSuspended: {SupplierStatusApproved},
}

// CanTransition 检查状态迁移是否允许
func CanTransition(from, to SupplierStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Supplier 供应商档案，每个账户最多一条
type Supplier struct {
	BaseModel
	UserID       string         `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`
	SupplierType SupplierType   `gorm:"type:varchar(20);index;not null" json:"supplier_type"`
	Status       SupplierStatus `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`

	// 企业信息
	CompanyName         string `gorm:"type:varchar(255);index" json:"company_name,omitempty"`
	CreditCode          string `gorm:"type:varchar(18)" json:"credit_code,omitempty"`           // 统一社会信用代码
	LegalRepresentative string `gorm:"type:varchar(100)" json:"legal_representative,omitempty"` // 法定代表人
	RegistrationNumber  string `gorm:"type:varchar(100)" json:"registration_number,omitempty"`  // 境外注册号
	Country             string `gorm:"type:varchar(100)" json:"country,omitempty"`
	BusinessScope       string `gorm:"type:text" json:"business_scope,omitempty"`

	// 联系信息
	ContactName  string `gorm:"type:varchar(100);index" json:"contact_name,omitempty"`
	ContactPhone string `gorm:"type:varchar(30)" json:"contact_phone,omitempty"`
	ContactEmail string `gorm:"type:varchar(255)" json:"contact_email,omitempty"`
	IDCardNumber string `gorm:"type:varchar(18)" json:"id_card_number,omitempty"`
	Address      string `gorm:"type:varchar(500)" json:"address,omitempty"`

	// 银行信息
	BankName    string `gorm:"type:varchar(255)" json:"bank_name,omitempty"`
	BankAccount string `gorm:"type:varchar(64)" json:"bank_account,omitempty"`

	// 经营数据，无法解析时为空
	RegisteredCapital *float64 `json:"registered_capital"`
	AnnualRevenue     *float64 `json:"annual_revenue"`
	EmployeeCount     *int     `json:"employee_count"`

	// 驳回原因，暂停时也存放暂停备注；通过 Standing 读取
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *string    `gorm:"type:char(36)" json:"approved_by"`
}

// TableName 指定表名
func (Supplier) TableName() string {
	return "suppliers"
}

// DisplayName 列表展示名称
func (s *Supplier) DisplayName() string {
	if s.CompanyName != "" {
		return s.CompanyName
	}
	return s.ContactName
}

// MarkApproved 审核通过
func (s *Supplier) MarkApproved(reviewerID string, at time.Time) error {
	if s.Status != SupplierStatusPending {
		return ErrInvalidTransition
	}
	s.Status = SupplierStatusApproved
	s.ApprovedAt = &at
	s.ApprovedBy = &reviewerID
	s.RejectionReason = nil
	return nil
}

// MarkRejected 审核驳回，reason 必须非空
func (s *Supplier) MarkRejected(reason string) error {
	if !CanTransition(s.Status, SupplierStatusRejected) {
		return ErrInvalidTransition
	}
	s.Status = SupplierStatusRejected
	s.RejectionReason = &reason
	return nil
}

// MarkSuspended 暂停合作，note 可为空
func (s *Supplier) MarkSuspended(note string) error {
	if !CanTransition(s.Status, SupplierStatusSuspended) {
		return ErrInvalidTransition
	}
	s.Status = SupplierStatusSuspended
	if note == "" {
		s.RejectionReason = nil
	} else {
		s.RejectionReason = &note
	}
	return nil
}

// MarkRestored 恢复合作，不修改 approved_at/approved_by
func (s *Supplier) MarkRestored() error {
	if s.Status != SupplierStatusSuspended {
		return ErrInvalidTransition
	}
	s.Status = SupplierStatusApproved
	s.RejectionReason = nil
	return nil
}

// StandingKind 供应商当前状况
type StandingKind string

const (
	StandingPending   StandingKind = "pending"
	StandingActive    StandingKind = "active"
	StandingRejected  StandingKind = "rejected"
	StandingSuspended StandingKind = "suspended"
)

// Standing 由 status 与 rejection_reason 推导出的状况，Reason 对驳回是驳回原因，对暂停是暂停备注
type Standing struct {
	Kind   StandingKind `json:"kind"`
	Reason string       `json:"reason,omitempty"`
}

// Standing 返回当前状况
func (s *Supplier) Standing() Standing {
	reason := ""
	if s.RejectionReason != nil {
		reason = *s.RejectionReason
	}
	switch s.Status {
	case SupplierStatusApproved:
		return Standing{Kind: StandingActive}
	case SupplierStatusRejected:
		return Standing{Kind: StandingRejected, Reason: reason}
	case SupplierStatusSuspended:
		return Standing{Kind: StandingSuspended, Reason: reason}
	default:
		return Standing{Kind: StandingPending}
	}
}
