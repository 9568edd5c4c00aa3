package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/pu-ac-cn/srm-backend/internal/model"
)

var (
	ErrUnknownAction        = errors.New("未知的操作")
	ErrRejectReasonRequired = NewValidationError("reason", "驳回原因不能为空")
	errSupplierIDRequired   = NewValidationError("supplier_id", "不能为空")
)

// 审核网关操作名
const (
	ActionListPending       = "list_pending"
	ActionGetSupplierDetail = "get_supplier_detail"
	ActionApprove           = "approve"
	ActionReject            = "reject"
	ActionSuspend           = "suspend"
	ActionRestore           = "restore"
)

// StatusAll 列表查询全部状态
const StatusAll = "all"

// AuditCommand 审核网关命令，只有本包内的命令类型可实现
type AuditCommand interface {
	Action() string
	auditCommand()
}

// ListPendingCommand 查询供应商列表
type ListPendingCommand struct {
	Status       string // 状态或 all，为空时为 pending
	SupplierType model.SupplierType
	Keyword      string
	Page         int
	PageSize     int
}

// GetSupplierDetailCommand 查询供应商详情
type GetSupplierDetailCommand struct {
	SupplierID string
}

// ApproveCommand 审核通过
type ApproveCommand struct {
	SupplierID string
}

// RejectCommand 审核驳回
type RejectCommand struct {
	SupplierID string
	Reason     string
}

// SuspendCommand 暂停合作
type SuspendCommand struct {
	SupplierID string
	Reason     string
}

// RestoreCommand 恢复合作
type RestoreCommand struct {
	SupplierID string
}

func (ListPendingCommand) Action() string       { return ActionListPending }
func (GetSupplierDetailCommand) Action() string { return ActionGetSupplierDetail }
func (ApproveCommand) Action() string           { return ActionApprove }
func (RejectCommand) Action() string            { return ActionReject }
func (SuspendCommand) Action() string           { return ActionSuspend }
func (RestoreCommand) Action() string           { return ActionRestore }

func (ListPendingCommand) auditCommand()       {}
func (GetSupplierDetailCommand) auditCommand() {}
func (ApproveCommand) auditCommand()           {}
func (RejectCommand) auditCommand()            {}
func (SuspendCommand) auditCommand()           {}
func (RestoreCommand) auditCommand()           {}

type rawAuditCommand struct {
	Action       string      `json:"action"`
	SupplierID   string      `json:"supplier_id"`
	Reason       string      `json:"reason"`
	Status       string      `json:"status"`
	SupplierType string      `json:"supplier_type"`
	Keyword      string      `json:"keyword"`
	Page         NumericText `json:"page"`
	PageSize     NumericText `json:"page_size"`
}

// DecodeAuditCommand 解析 {action, ...params} 请求体
func DecodeAuditCommand(data []byte) (AuditCommand, error) {
	var raw rawAuditCommand
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewValidationError("", "请求体格式错误")
	}

	supplierID := strings.TrimSpace(raw.SupplierID)
	action := strings.TrimSpace(raw.Action)

	switch action {
	case "":
		return nil, NewValidationError("action", "不能为空")
	case ActionListPending:
		cmd := ListPendingCommand{
			Status:       strings.TrimSpace(raw.Status),
			SupplierType: model.SupplierType(strings.TrimSpace(raw.SupplierType)),
			Keyword:      strings.TrimSpace(raw.Keyword),
		}
		if p := raw.Page.Count(); p != nil {
			cmd.Page = *p
		}
		if p := raw.PageSize.Count(); p != nil {
			cmd.PageSize = *p
		}
		return cmd, nil
	case ActionGetSupplierDetail:
		if supplierID == "" {
			return nil, errSupplierIDRequired
		}
		return GetSupplierDetailCommand{SupplierID: supplierID}, nil
	case ActionApprove:
		if supplierID == "" {
			return nil, errSupplierIDRequired
		}
		return ApproveCommand{SupplierID: supplierID}, nil
	case ActionReject:
		// 驳回原因先于其它校验
		reason := strings.TrimSpace(raw.Reason)
		if reason == "" {
			return nil, ErrRejectReasonRequired
		}
		if supplierID == "" {
			return nil, errSupplierIDRequired
		}
		return RejectCommand{SupplierID: supplierID, Reason: reason}, nil
	case ActionSuspend:
		if supplierID == "" {
			return nil, errSupplierIDRequired
		}
		return SuspendCommand{SupplierID: supplierID, Reason: strings.TrimSpace(raw.Reason)}, nil
	case ActionRestore:
		if supplierID == "" {
			return nil, errSupplierIDRequired
		}
		return RestoreCommand{SupplierID: supplierID}, nil
	default:
		return nil, ErrUnknownAction
	}
}
