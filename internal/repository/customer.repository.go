package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/pkg/pg"
	"gorm.io/gorm"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrgID     int64     `db:"org_id"     gorm:"column:org_id;not null;index"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Phone     string    `db:"phone"      gorm:"column:phone"`
	IsBranch  bool      `db:"is_branch"  gorm:"column:is_branch;not null;default:false"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Name:      e.Name,
		Phone:     e.Phone,
		IsBranch:  e.IsBranch,
		CreatedAt: e.CreatedAt,
	}
}

// CustomerRepository is the owner registry. Branches live here too, flagged
// IsBranch, so the boundary can resolve an AccountOwner once and the ledger
// below only ever sees owner ids.
type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	entity := &CustomerEntity{
		OrgID:    c.OrgID,
		Name:     c.Name,
		Phone:    c.Phone,
		IsBranch: c.IsBranch,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) Get(ctx context.Context, orgID, id int64) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return toCustomerModel(&entity), nil
}

// GetBranch fetches an owner and verifies it actually is a branch.
func (r *CustomerRepository) GetBranch(ctx context.Context, orgID, id int64) (*model.Customer, error) {
	c, err := r.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !c.IsBranch {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context, orgID int64, branchesOnly bool, limit, offset int) ([]*model.Customer, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&CustomerEntity{}).
		Where("org_id = ?", orgID)
	if branchesOnly {
		q = q.Where("is_branch = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*CustomerEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models, total, nil
}
