package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

// GormToyRepository is the MySQL-backed catalog store.
type GormToyRepository struct {
	db *gorm.DB
}

func NewGormToyRepository(db *gorm.DB) *GormToyRepository {
	return &GormToyRepository{db: db}
}

func (r *GormToyRepository) Get(ctx context.Context, id int) (*domain.Toy, error) {
	var model ToyModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrToyNotFound
		}
		return nil, errors.Wrap(err, "get toy")
	}
	return toDomainToy(&model), nil
}

func (r *GormToyRepository) List(ctx context.Context) ([]domain.Toy, error) {
	var models []ToyModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list toys")
	}
	out := make([]domain.Toy, 0, len(models))
	for i := range models {
		out = append(out, *toDomainToy(&models[i]))
	}
	return out, nil
}

func (r *GormToyRepository) Search(ctx context.Context, name string) ([]domain.Toy, error) {
	var models []ToyModel
	err := r.db.WithContext(ctx).
		Where("name LIKE ?", "%"+name+"%").
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "search toys")
	}
	out := make([]domain.Toy, 0, len(models))
	for i := range models {
		out = append(out, *toDomainToy(&models[i]))
	}
	return out, nil
}

func (r *GormToyRepository) Create(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	model := toToyModel(toy)
	model.ID = 0 // the store owns id assignment
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, errors.Wrap(err, "create toy")
	}
	return toDomainToy(model), nil
}

func (r *GormToyRepository) Update(ctx context.Context, toy *domain.Toy) (*domain.Toy, error) {
	res := r.db.WithContext(ctx).
		Model(&ToyModel{}).
		Where("id = ?", toy.ID).
		Updates(map[string]interface{}{
			"name":     toy.Name,
			"cost":     toy.Cost,
			"quantity": toy.Quantity,
			"type":     toy.Type,
		})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update toy")
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrToyNotFound
	}
	return r.Get(ctx, toy.ID)
}

func (r *GormToyRepository) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&ToyModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete toy")
	}
	if res.RowsAffected == 0 {
		return domain.ErrToyNotFound
	}
	return nil
}

// DecrementStock commits the decrement as a single conditional UPDATE, so the
// database serializes concurrent writers on the row and the guard clause
// keeps the quantity from ever going negative.
func (r *GormToyRepository) DecrementStock(ctx context.Context, id, qty int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&ToyModel{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing row from a stock shortfall.
		toy, err := r.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return toy.Quantity, domain.ErrInsufficientStock
	}

	toy, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return toy.Quantity, nil
}
