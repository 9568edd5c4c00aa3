package model

// Menu 终端菜单
type Menu struct {
	BaseModel
	Terminal  Terminal `gorm:"type:varchar(20);not null;uniqueIndex:idx_menu_terminal_code" json:"terminal"` // 所属终端
	Code      string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_menu_terminal_code" json:"code"`  // 菜单标识，终端内唯一
	ParentID  string   `gorm:"type:char(36);index" json:"parent_id,omitempty"`                             // 父菜单 ID，空表示顶级
	Name      string   `gorm:"type:varchar(100);not null" json:"name"`                                     // 菜单名称
	Path      string   `gorm:"type:varchar(255)" json:"path"`                                              // 前端路由
	Icon      string   `gorm:"type:varchar(100)" json:"icon,omitempty"`                                    // 图标
	SortOrder int      `gorm:"default:0" json:"sort_order"`                                                // 排序，越小越靠前
	IsActive  bool     `gorm:"not null" json:"is_active"`                                                 // 是否启用
}

// TableName 指定表名
func (Menu) TableName() string {
	return "backend_menus"
}

// DefaultMenus 各终端内置菜单
func DefaultMenus() []Menu {
	return []Menu{
		{Terminal: TerminalAdmin, Code: "dashboard", Name: "工作台", Path: "/admin/dashboard", SortOrder: 10, IsActive: true},
		{Terminal: TerminalAdmin, Code: "supplier_audit", Name: "供应商审核", Path: "/admin/audit", SortOrder: 20, IsActive: true},
		{Terminal: TerminalAdmin, Code: "user_manage", Name: "用户管理", Path: "/admin/users", SortOrder: 30, IsActive: true},
		{Terminal: TerminalAdmin, Code: "permission_manage", Name: "权限管理", Path: "/admin/permissions", SortOrder: 40, IsActive: true},

		{Terminal: TerminalDepartment, Code: "dashboard", Name: "工作台", Path: "/department/dashboard", SortOrder: 10, IsActive: true},
		{Terminal: TerminalDepartment, Code: "supplier_library", Name: "供应商库", Path: "/department/suppliers", SortOrder: 20, IsActive: true},

		{Terminal: TerminalSupplier, Code: "dashboard", Name: "工作台", Path: "/supplier/dashboard", SortOrder: 10, IsActive: true},
		{Terminal: TerminalSupplier, Code: "profile", Name: "企业信息", Path: "/supplier/profile", SortOrder: 20, IsActive: true},
		{Terminal: TerminalSupplier, Code: "qualification", Name: "资质管理", Path: "/supplier/qualifications", SortOrder: 30, IsActive: true},
	}
}
