package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/metrics"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrSupplierSuspended   = errors.New("供应商已暂停合作，不能修改资料")
	ErrInvalidSupplierType = errors.New("无效的供应商类型")
)

var (
	// 统一社会信用代码：18 位，不含 I O Z S V
	creditCodeRegex = regexp.MustCompile(`^[0-9A-HJ-NPQRTUWXY]{2}\d{6}[0-9A-HJ-NPQRTUWXY]{10}$`)
	idCardRegex     = regexp.MustCompile(`^\d{17}[\dXx]$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("credit_code", func(fl validator.FieldLevel) bool {
		return creditCodeRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("id_card", func(fl validator.FieldLevel) bool {
		return idCardRegex.MatchString(fl.Field().String())
	})
	return v
}

// NumericText 以文本提交的数值，兼容 JSON 数字与字符串
type NumericText string

// UnmarshalJSON 接受数字、字符串或 null
func (n *NumericText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	*n = NumericText(data)
	return nil
}

// Amount 解析金额，无效、为空或为负时返回 nil
func (n NumericText) Amount() *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(string(n)), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Count 解析人数，无效、为空或为负时返回 nil
func (n NumericText) Count() *int {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// RegistrationForm 按供应商类型区分的注册表单
type RegistrationForm interface {
	SupplierType() model.SupplierType
	// normalize 在校验前去除首尾空白并统一大小写
	normalize()
	apply(s *model.Supplier)
}

// ProfileFields 各类型通用的资料字段
type ProfileFields struct {
	ContactPhone      string      `json:"contact_phone" validate:"max=30"`
	ContactEmail      string      `json:"contact_email" validate:"omitempty,email,max=255"`
	Address           string      `json:"address" validate:"max=500"`
	BankName          string      `json:"bank_name" validate:"max=255"`
	BankAccount       string      `json:"bank_account" validate:"max=64"`
	BusinessScope     string      `json:"business_scope"`
	RegisteredCapital NumericText `json:"registered_capital"`
	AnnualRevenue     NumericText `json:"annual_revenue"`
	EmployeeCount     NumericText `json:"employee_count"`
}

func (p *ProfileFields) normalize() {
	p.ContactPhone = strings.TrimSpace(p.ContactPhone)
	p.ContactEmail = strings.TrimSpace(p.ContactEmail)
	p.Address = strings.TrimSpace(p.Address)
	p.BankName = strings.TrimSpace(p.BankName)
	p.BankAccount = strings.TrimSpace(p.BankAccount)
	p.BusinessScope = strings.TrimSpace(p.BusinessScope)
}

func (p *ProfileFields) apply(s *model.Supplier) {
	s.ContactPhone = p.ContactPhone
	s.ContactEmail = p.ContactEmail
	s.Address = p.Address
	s.BankName = p.BankName
	s.BankAccount = p.BankAccount
	s.BusinessScope = p.BusinessScope
	s.RegisteredCapital = p.RegisteredCapital.Amount()
	s.AnnualRevenue = p.AnnualRevenue.Amount()
	s.EmployeeCount = p.EmployeeCount.Count()
}

// EnterpriseForm 国内企业注册
type EnterpriseForm struct {
	ProfileFields
	CompanyName         string `json:"company_name" validate:"required,max=255"`
	CreditCode          string `json:"credit_code" validate:"required,credit_code"`
	LegalRepresentative string `json:"legal_representative" validate:"required,max=100"`
	ContactName         string `json:"contact_name" validate:"max=100"`
}

func (f *EnterpriseForm) SupplierType() model.SupplierType { return model.SupplierTypeEnterprise }

func (f *EnterpriseForm) normalize() {
	f.ProfileFields.normalize()
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.CreditCode = strings.ToUpper(strings.TrimSpace(f.CreditCode))
	f.LegalRepresentative = strings.TrimSpace(f.LegalRepresentative)
	f.ContactName = strings.TrimSpace(f.ContactName)
}

func (f *EnterpriseForm) apply(s *model.Supplier) {
	f.ProfileFields.apply(s)
	s.CompanyName = f.CompanyName
	s.CreditCode = f.CreditCode
	s.LegalRepresentative = f.LegalRepresentative
	s.ContactName = f.ContactName
}

// OverseasForm 境外企业注册
type OverseasForm struct {
	ProfileFields
	CompanyName        string `json:"company_name" validate:"required,max=255"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=100"`
	Country            string `json:"country" validate:"required,max=100"`
	ContactName        string `json:"contact_name" validate:"max=100"`
}

func (f *OverseasForm) SupplierType() model.SupplierType { return model.SupplierTypeOverseas }

func (f *OverseasForm) normalize() {
	f.ProfileFields.normalize()
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.RegistrationNumber = strings.TrimSpace(f.RegistrationNumber)
	f.Country = strings.TrimSpace(f.Country)
	f.ContactName = strings.TrimSpace(f.ContactName)
}

func (f *OverseasForm) apply(s *model.Supplier) {
	f.ProfileFields.apply(s)
	s.CompanyName = f.CompanyName
	s.RegistrationNumber = f.RegistrationNumber
	s.Country = f.Country
	s.ContactName = f.ContactName
}

// IndividualForm 个人供应商注册
type IndividualForm struct {
	ProfileFields
	ContactName  string `json:"contact_name" validate:"required,max=100"`
	IDCardNumber string `json:"id_card_number" validate:"required,id_card"`
}

func (f *IndividualForm) SupplierType() model.SupplierType { return model.SupplierTypeIndividual }

func (f *IndividualForm) normalize() {
	f.ProfileFields.normalize()
	f.ContactName = strings.TrimSpace(f.ContactName)
	f.IDCardNumber = strings.ToUpper(strings.TrimSpace(f.IDCardNumber))
}

func (f *IndividualForm) apply(s *model.Supplier) {
	f.ProfileFields.apply(s)
	s.ContactName = f.ContactName
	s.IDCardNumber = f.IDCardNumber
}

// DecodeRegistrationForm 先读取 supplier_type，再解码为对应表单
func DecodeRegistrationForm(data []byte) (RegistrationForm, error) {
	var head struct {
		SupplierType model.SupplierType `json:"supplier_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, NewValidationError("", "请求体格式错误")
	}

	var form RegistrationForm
	switch head.SupplierType {
	case model.SupplierTypeEnterprise:
		form = &EnterpriseForm{}
	case model.SupplierTypeOverseas:
		form = &OverseasForm{}
	case model.SupplierTypeIndividual:
		form = &IndividualForm{}
	default:
		return nil, NewValidationError("supplier_type", ErrInvalidSupplierType.Error())
	}
	if err := json.Unmarshal(data, form); err != nil {
		return nil, NewValidationError("", "请求体格式错误")
	}
	return form, nil
}

// UpdateProfileInput 供应商修改资料，类型和状态不可修改
type UpdateProfileInput struct {
	ProfileFields
	ContactName *string `json:"contact_name" validate:"omitempty,max=100"`
}

// RegistrationService 供应商注册服务
type RegistrationService interface {
	Register(ctx context.Context, userID string, form RegistrationForm) (*model.Supplier, error)
	GetMine(ctx context.Context, userID string) (*model.Supplier, error)
	UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*model.Supplier, error)
}

type registrationService struct {
	supplierRepo repository.SupplierRepository
	log          *zap.Logger
}

// NewRegistrationService 创建供应商注册服务
func NewRegistrationService(supplierRepo repository.SupplierRepository, log *zap.Logger) RegistrationService {
	if log == nil {
		log = logger.L()
	}
	return &registrationService{supplierRepo: supplierRepo, log: log.Named("registration")}
}

func (s *registrationService) Register(ctx context.Context, userID string, form RegistrationForm) (*model.Supplier, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}
	if form == nil {
		return nil, NewValidationError("supplier_type", ErrInvalidSupplierType.Error())
	}
	// 先规范化，只含空白的必填项按空值处理
	form.normalize()
	if err := validate.Struct(form); err != nil {
		return nil, translateValidation(err)
	}

	if _, err := s.supplierRepo.GetByUserID(ctx, userID); err == nil {
		return nil, repository.ErrSupplierExists
	} else if !errors.Is(err, repository.ErrSupplierNotFound) {
		return nil, err
	}

	supplier := &model.Supplier{
		UserID:       userID,
		SupplierType: form.SupplierType(),
		Status:       model.SupplierStatusPending,
	}
	form.apply(supplier)

	// 并发提交时由 user_id 唯一索引保证只有一条
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	metrics.SupplierRegistrations.WithLabelValues(string(supplier.SupplierType)).Inc()
	s.log.Info("供应商注册已提交",
		zap.String("supplier_id", supplier.ID),
		zap.String("user_id", userID),
		zap.String("supplier_type", string(supplier.SupplierType)),
	)
	return supplier, nil
}

func (s *registrationService) GetMine(ctx context.Context, userID string) (*model.Supplier, error) {
	return s.supplierRepo.GetByUserID(ctx, userID)
}

func (s *registrationService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*model.Supplier, error) {
	if input == nil {
		return nil, NewValidationError("", "请求体不能为空")
	}
	input.ProfileFields.normalize()
	if input.ContactName != nil {
		name := strings.TrimSpace(*input.ContactName)
		input.ContactName = &name
	}
	if err := validate.Struct(input); err != nil {
		return nil, translateValidation(err)
	}

	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier.Status == model.SupplierStatusSuspended {
		return nil, ErrSupplierSuspended
	}

	input.ProfileFields.apply(supplier)
	if input.ContactName != nil {
		supplier.ContactName = *input.ContactName
	}
	if supplier.SupplierType == model.SupplierTypeIndividual && supplier.ContactName == "" {
		return nil, NewValidationError("contact_name", "不能为空")
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}
