package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{
		db: db,
	}
}

func (r *UsersRepository) List() ([]User, error) {
	var users []User
	if err := r.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UsersRepository) GetByID(id uint) (*User, error) {
	var user User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) GetByUsername(username string) (*User, error) {
	var user User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) Create(user *User) error {
	return r.db.Create(user).Error
}

func (r *UsersRepository) Update(user *User) error {
	return r.db.Model(&User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"username":      user.Username,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"updated_at":    time.Now(),
	}).Error
}

func (r *UsersRepository) Delete(id uint) error {
	return r.db.Delete(&User{}, id).Error
}

// TouchLastLogin stamps a successful authentication.
func (r *UsersRepository) TouchLastLogin(id uint) error {
	now := time.Now()
	return r.db.Model(&User{}).Where("id = ?", id).Update("last_login", now).Error
}
