package eventrepo

import (
	"context"

	"gorm.io/gorm"
)

type ITradeEvent interface {
	Create(ctx context.Context, record *TradeEvent) (*TradeEvent, error)
	BulkCreate(ctx context.Context, records []*TradeEvent) ([]*TradeEvent, error)
}

type TradeEventSQLRepo struct {
	db *gorm.DB
}

func NewTradeEventSQLRepo(db *gorm.DB) *TradeEventSQLRepo {
	return &TradeEventSQLRepo{db: db}
}

func (r *TradeEventSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *TradeEventSQLRepo) Create(ctx context.Context, record *TradeEvent) (*TradeEvent, error) {
	return record, r.dbWithContext(ctx).Create(record).Error
}

func (r *TradeEventSQLRepo) BulkCreate(ctx context.Context, records []*TradeEvent) ([]*TradeEvent, error) {
	if len(records) == 0 {
		return records, nil
	}
	return records, r.dbWithContext(ctx).Create(records).Error
}
