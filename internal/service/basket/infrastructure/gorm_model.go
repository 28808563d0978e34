package infrastructure

import "github.com/smiles-unlimited/ufund/internal/service/basket/domain"

// BasketModel maps to the baskets table; one row per user.
type BasketModel struct {
	UserID int `gorm:"primaryKey"`
}

func (BasketModel) TableName() string {
	return "baskets"
}

// BasketLineModel maps to the basket_lines table. The surrogate ID preserves
// insertion order for display; (user_id, toy_id) is unique so a basket can
// never hold two lines for the same toy.
type BasketLineModel struct {
	ID       uint `gorm:"primaryKey;autoIncrement"`
	UserID   int  `gorm:"uniqueIndex:idx_user_toy;not null"`
	ToyID    int  `gorm:"uniqueIndex:idx_user_toy;not null"`
	Name     string
	Cost     int
	Quantity int
}

func (BasketLineModel) TableName() string {
	return "basket_lines"
}

func toDomainLine(m *BasketLineModel) domain.Line {
	return domain.Line{
		ToyID:    m.ToyID,
		Name:     m.Name,
		Cost:     m.Cost,
		Quantity: m.Quantity,
	}
}
