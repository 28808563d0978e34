package infrastructure

import "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"

// ToyModel maps to the toys table.
type ToyModel struct {
	ID       int    `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:255;not null"`
	Cost     int    `gorm:"not null"`
	Quantity int    `gorm:"not null"`
	Type     string `gorm:"size:64"`
}

// TableName tells GORM which table to use.
func (ToyModel) TableName() string {
	return "toys"
}

func toDomainToy(m *ToyModel) *domain.Toy {
	return &domain.Toy{
		ID:       m.ID,
		Name:     m.Name,
		Cost:     m.Cost,
		Quantity: m.Quantity,
		Type:     m.Type,
	}
}

func toToyModel(t *domain.Toy) *ToyModel {
	return &ToyModel{
		ID:       t.ID,
		Name:     t.Name,
		Cost:     t.Cost,
		Quantity: t.Quantity,
		Type:     t.Type,
	}
}
