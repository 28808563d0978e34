package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

// GormBasketRepository is the MySQL-backed basket store.
type GormBasketRepository struct {
	db *gorm.DB
}

func NewGormBasketRepository(db *gorm.DB) *GormBasketRepository {
	return &GormBasketRepository{db: db}
}

func (r *GormBasketRepository) Get(ctx context.Context, userID int) (*domain.Basket, error) {
	var model BasketModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBasketNotFound
		}
		return nil, errors.Wrap(err, "get basket")
	}
	return r.loadBasket(ctx, userID)
}

func (r *GormBasketRepository) loadBasket(ctx context.Context, userID int) (*domain.Basket, error) {
	var lines []BasketLineModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "load basket lines")
	}
	basket := domain.NewBasket(userID)
	for i := range lines {
		basket.Lines = append(basket.Lines, toDomainLine(&lines[i]))
	}
	return basket, nil
}

func (r *GormBasketRepository) Create(ctx context.Context, userID int) (*domain.Basket, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&BasketModel{UserID: userID}).Error
	if err != nil {
		return nil, errors.Wrap(err, "create basket")
	}
	return r.loadBasket(ctx, userID)
}

func (r *GormBasketRepository) AddLine(ctx context.Context, userID int, line domain.Line) (*domain.Basket, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var basket BasketModel
		if err := tx.First(&basket, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBasketNotFound
			}
			return err
		}

		var existing BasketLineModel
		err := tx.Where("user_id = ? AND toy_id = ?", userID, line.ToyID).First(&existing).Error
		switch {
		case err == nil:
			// Merge, never duplicate.
			return tx.Model(&existing).Updates(map[string]interface{}{
				"quantity": existing.Quantity + line.Quantity,
				"name":     line.Name,
				"cost":     line.Cost,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&BasketLineModel{
				UserID:   userID,
				ToyID:    line.ToyID,
				Name:     line.Name,
				Cost:     line.Cost,
				Quantity: line.Quantity,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, domain.ErrBasketNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "add basket line")
	}
	return r.loadBasket(ctx, userID)
}

func (r *GormBasketRepository) RemoveLine(ctx context.Context, userID, toyID int) (*domain.Basket, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND toy_id = ?", userID, toyID).
		Delete(&BasketLineModel{})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "remove basket line")
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, userID); err != nil {
			return nil, err
		}
		return nil, domain.ErrLineNotFound
	}
	return r.loadBasket(ctx, userID)
}

func (r *GormBasketRepository) ListAll(ctx context.Context) ([]domain.Basket, error) {
	var models []BasketModel
	if err := r.db.WithContext(ctx).Order("user_id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list baskets")
	}
	out := make([]domain.Basket, 0, len(models))
	for _, model := range models {
		basket, err := r.loadBasket(ctx, model.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, *basket)
	}
	return out, nil
}

// Save replaces the stored lines with the basket's in-memory state.
func (r *GormBasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&BasketModel{UserID: basket.ID}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", basket.ID).Delete(&BasketLineModel{}).Error; err != nil {
			return err
		}
		for _, line := range basket.Lines {
			if err := tx.Create(&BasketLineModel{
				UserID:   basket.ID,
				ToyID:    line.ToyID,
				Name:     line.Name,
				Cost:     line.Cost,
				Quantity: line.Quantity,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "save basket")
}
