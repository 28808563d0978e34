package infrastructure

import (
	"context"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/smiles-unlimited/ufund/internal/service/user/domain"
)

const mysqlDuplicateEntry = 1062

// UserModel maps to the users table.
type UserModel struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	IsPartner bool   `gorm:"not null;default:false"`
}

func (UserModel) TableName() string {
	return "users"
}

// ApplicationModel maps to the partnership_applications table; one row per
// pending applicant.
type ApplicationModel struct {
	UserID int `gorm:"primaryKey"`
}

func (ApplicationModel) TableName() string {
	return "partnership_applications"
}

// GormUserRepository is the MySQL-backed user store.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func toDomainUser(m *UserModel) *domain.User {
	return &domain.User{ID: m.ID, Name: m.Name, IsPartner: m.IsPartner}
}

func (r *GormUserRepository) Get(ctx context.Context, id int) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return toDomainUser(&model), nil
}

func (r *GormUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	var model UserModel
	// MySQL's default collation compares case-insensitively.
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "get user by name")
	}
	return toDomainUser(&model), nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, "")
}

func (r *GormUserRepository) Search(ctx context.Context, name string) ([]domain.User, error) {
	return r.find(ctx, name)
}

func (r *GormUserRepository) find(ctx context.Context, name string) ([]domain.User, error) {
	var models []UserModel
	q := r.db.WithContext(ctx).Order("id")
	if name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	out := make([]domain.User, 0, len(models))
	for i := range models {
		out = append(out, *toDomainUser(&models[i]))
	}
	return out, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	model := &UserModel{Name: user.Name, IsPartner: user.IsPartner}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateEntry(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, errors.Wrap(err, "create user")
	}
	return toDomainUser(model), nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	res := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":       user.Name,
			"is_partner": user.IsPartner,
		})
	if res.Error != nil {
		if isDuplicateEntry(res.Error) {
			return nil, domain.ErrDuplicateName
		}
		return nil, errors.Wrap(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.Get(ctx, user.ID)
}

func (r *GormUserRepository) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&UserModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) AddApplicant(ctx context.Context, userID int) error {
	err := r.db.WithContext(ctx).Create(&ApplicationModel{UserID: userID}).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrDuplicateApplication
		}
		return errors.Wrap(err, "add applicant")
	}
	return nil
}

func (r *GormUserRepository) RemoveApplicant(ctx context.Context, userID int) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&ApplicationModel{}, "user_id = ?", userID)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "remove applicant")
	}
	return res.RowsAffected > 0, nil
}

func (r *GormUserRepository) ListApplicants(ctx context.Context) ([]int, error) {
	var models []ApplicationModel
	if err := r.db.WithContext(ctx).Order("user_id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list applicants")
	}
	out := make([]int, 0, len(models))
	for _, m := range models {
		out = append(out, m.UserID)
	}
	return out, nil
}

func (r *GormUserRepository) ListPartners(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("is_partner = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "list partners")
	}
	return ids, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
