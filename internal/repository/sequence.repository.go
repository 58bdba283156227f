package repository

import (
	"context"
	"errors"

	"github.com/sarafbook/ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateSequence = errors.New("sequence number already issued")

// Scope names for the counters each engine draws from.
const (
	SeqDepositWithdraw = "deposit_withdraw"
	SeqTransfer        = "transfer"
	SeqReceive         = "receive"
	SeqExchange        = "exchange"
)

// SequenceEntity is an explicit counter row per (org, name, branch). Reading
// max(no) from the record tables and inserting max+1 races under concurrency;
// a counter row locked FOR UPDATE inside the caller's transaction does not.
type SequenceEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	OrgID    int64  `db:"org_id"    gorm:"column:org_id;not null;uniqueIndex:idx_sequence_scope"`
	Name     string `db:"name"      gorm:"column:name;not null;uniqueIndex:idx_sequence_scope"`
	BranchID int64  `db:"branch_id" gorm:"column:branch_id;not null;default:0;uniqueIndex:idx_sequence_scope"`
	Value    int64  `db:"value"     gorm:"column:value;not null;default:0"`
}

func (SequenceEntity) TableName() string {
	return "sequences"
}

type SequenceRepository struct {
	*pg.DB
}

func NewSequenceRepository(db *pg.DB) *SequenceRepository {
	return &SequenceRepository{
		db,
	}
}

// Next allocates the next number for the scope. Must be called inside the
// caller's transaction so the lock is held until the record insert commits.
// branchID is zero for organization-wide scopes.
func (r *SequenceRepository) Next(ctx context.Context, orgID int64, name string, branchID int64) (int64, error) {
	entity, err := r.lockRow(ctx, orgID, name, branchID)
	if err != nil {
		return 0, err
	}

	next := entity.Value + 1
	if err := r.store(ctx, entity, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Claim reserves a caller-supplied manual number. A manual number at or below
// the counter has already been issued and fails with ErrDuplicateSequence;
// otherwise the counter jumps to the manual value so later automatic numbers
// cannot collide with it.
func (r *SequenceRepository) Claim(ctx context.Context, orgID int64, name string, branchID, manual int64) (int64, error) {
	if manual <= 0 {
		return 0, ErrDuplicateSequence
	}

	entity, err := r.lockRow(ctx, orgID, name, branchID)
	if err != nil {
		return 0, err
	}

	if manual <= entity.Value {
		return 0, ErrDuplicateSequence
	}
	if err := r.store(ctx, entity, manual); err != nil {
		return 0, err
	}
	return manual, nil
}

func (r *SequenceRepository) lockRow(ctx context.Context, orgID int64, name string, branchID int64) (*SequenceEntity, error) {
	var entity SequenceEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND name = ? AND branch_id = ?", orgID, name, branchID).
		First(&entity).Error
	if err == nil {
		return &entity, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity = SequenceEntity{OrgID: orgID, Name: name, BranchID: branchID, Value: 0}
	if err := r.Write(ctx).WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *SequenceRepository) store(ctx context.Context, entity *SequenceEntity, value int64) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&SequenceEntity{}).
		Where("id = ?", entity.ID).
		Update("value", value).Error
}
