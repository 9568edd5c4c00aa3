// Package repository 数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Pagination 分页参数
type Pagination struct {
	Page     int // 页码，从 1 开始
	PageSize int // 每页数量
}

// Offset 计算偏移量
func (p *Pagination) Offset() int {
	if p == nil || p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

func paginate(query *gorm.DB, page *Pagination) *gorm.DB {
	if page != nil && page.Page > 0 && page.PageSize > 0 {
		query = query.Offset(page.Offset()).Limit(page.PageSize)
	}
	return query
}

// Transactor 事务管理器，fn 内通过 ctx 传递事务
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor 创建事务管理器
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// Transaction 在事务中执行 fn，已在事务中时直接复用外层事务
func (t *gormTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn 返回 ctx 中的事务连接，没有则返回 db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
