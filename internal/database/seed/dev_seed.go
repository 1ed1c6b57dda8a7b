package seed

import (
	"context"
	"fmt"
	"os"

	"RandomUserService/internal/models"
	"RandomUserService/internal/repository/postgres"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// profileWriter операции хранилища, нужные для заполнения
type profileWriter interface {
	Save(ctx context.Context, profile *models.ProfileData) (uint, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error)
}

// DevEnvironmentSeeder обрабатывает заполнение тестовыми данными среды разработки
type DevEnvironmentSeeder struct {
	repo   profileWriter
	logger *zap.Logger
}

// NewDevEnvironmentSeeder создает новый объект для заполнения тестовыми данными
func NewDevEnvironmentSeeder(db *gorm.DB, logger *zap.Logger) *DevEnvironmentSeeder {
	return &DevEnvironmentSeeder{
		repo:   postgres.NewProfileRepository(db),
		logger: logger,
	}
}

// devProfiles профили, которые создаются в режиме разработки
func devProfiles() []models.ProfileData {
	return []models.ProfileData{
		{
			FirstName:        "Louise",
			LastName:         "Martin",
			Email:            "louise.martin@example.com",
			Username:         "bluepanda841",
			Gender:           models.GenderFemale,
			DateOfBirth:      "1987-04-12T08:30:00Z",
			Phone:            "01-23-45-67-89",
			Cell:             "06-12-34-56-78",
			PictureLarge:     "https://randomuser.me/api/portraits/women/12.jpg",
			PictureMedium:    "https://randomuser.me/api/portraits/med/women/12.jpg",
			PictureThumbnail: "https://randomuser.me/api/portraits/thumb/women/12.jpg",
			StreetNumber:     "8",
			StreetName:       "Rue de la Paix",
			City:             "Paris",
			State:            "Île-de-France",
			Country:          "France",
			Postcode:         "75002",
			Latitude:         "48.8686",
			Longitude:        "2.3314",
		},
		{
			FirstName:        "Oskar",
			LastName:         "Lindqvist",
			Email:            "oskar.lindqvist@example.com",
			Username:         "silverwolf223",
			Gender:           models.GenderMale,
			DateOfBirth:      "1979-11-03T14:05:00Z",
			Phone:            "08-123 45 67",
			Cell:             "070-123 45 67",
			PictureLarge:     "https://randomuser.me/api/portraits/men/45.jpg",
			PictureMedium:    "https://randomuser.me/api/portraits/med/men/45.jpg",
			PictureThumbnail: "https://randomuser.me/api/portraits/thumb/men/45.jpg",
			StreetNumber:     "21",
			StreetName:       "Drottninggatan",
			City:             "Stockholm",
			State:            "Stockholms län",
			Country:          "Sweden",
			Postcode:         "11151",
			Latitude:         "59.3326",
			Longitude:        "18.0649",
		},
	}
}

// SeedProfiles создает тестовые профили, если мы находимся в режиме разработки.
// Уже существующие профили пропускаются.
func (s *DevEnvironmentSeeder) SeedProfiles(ctx context.Context) error {
	if os.Getenv("APP_ENV") != "development" {
		s.logger.Debug("Not in development mode, skipping profile seeding")
		return nil
	}

	profiles := devProfiles()
	s.logger.Info("Seeding development profiles", zap.Int("count", len(profiles)))

	created := 0
	for i := range profiles {
		profile := &profiles[i]

		emailTaken, usernameTaken, err := s.repo.ExistsByEmailOrUsername(ctx, profile.Email, profile.Username)
		if err != nil {
			return fmt.Errorf("check seeded profile %s: %w", profile.Username, err)
		}
		if emailTaken || usernameTaken {
			s.logger.Debug("Seed profile already exists", zap.String("username", profile.Username))
			continue
		}

		id, err := s.repo.Save(ctx, profile)
		if err != nil {
			s.logger.Error("Failed to seed profile", zap.String("username", profile.Username), zap.Error(err))
			return err
		}
		created++
		s.logger.Info("Seed profile created", zap.Uint("user_id", id), zap.String("username", profile.Username))
	}

	s.logger.Info("Development seeding completed", zap.Int("created", created))
	return nil
}
