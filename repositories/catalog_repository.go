package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"gorm.io/gorm"
)

type CarRepository struct {
	DB *gorm.DB
}

// FindCar resolves the car an order was booked against: by slug first, then by name.
func (r *CarRepository) FindCar(ctx context.Context, slug, name string) (*models.Car, error) {
	var car models.Car
	if slug != "" {
		err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&car).Error
		if err == nil {
			return &car, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if name == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

type TemplateRepository struct {
	DB *gorm.DB
}

func (r *TemplateRepository) FindTemplateBySlug(ctx context.Context, slug string) (*models.SystemTemplate, error) {
	var tmpl models.SystemTemplate
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

type SettingRepository struct {
	DB *gorm.DB
}

func (r *SettingRepository) FindSetting(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	if err := r.DB.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

type NotificationRepository struct {
	DB *gorm.DB
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

type CancellationReasonRepository struct {
	DB *gorm.DB
}

func (r *CancellationReasonRepository) FindCancellationReason(ctx context.Context, id uuid.UUID) (*models.CancellationReason, error) {
	var reason models.CancellationReason
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&reason).Error; err != nil {
		return nil, err
	}
	return &reason, nil
}
