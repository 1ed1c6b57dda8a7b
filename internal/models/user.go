package models

import (
	"time"
)

// Допустимые значения пола
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// IsValidGender проверяет, что значение входит в {male, female}
func IsValidGender(gender string) bool {
	return gender == GenderMale || gender == GenderFemale
}

// User представляет основную модель пользователя
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:255;not null" json:"first_name"`
	LastName     string    `gorm:"size:255;not null" json:"last_name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Связи
	Detail   *UserDetail `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"detail,omitempty"`
	Location *Location   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"location,omitempty"`
}

// FullName возвращает имя и фамилию через пробел
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserDetail содержит демографические и контактные данные пользователя
type UserDetail struct {
	ID               uint       `gorm:"primaryKey"`
	UserID           uint       `gorm:"not null;uniqueIndex"`
	Gender           string     `gorm:"type:varchar(6);not null;index;check:gender IN ('male','female')"`
	DateOfBirth      *time.Time `gorm:"type:timestamptz"`
	Phone            string     `gorm:"size:255"`
	Cell             string     `gorm:"size:255"`
	PictureLarge     string     `gorm:"size:255"`
	PictureMedium    string     `gorm:"size:255"`
	PictureThumbnail string     `gorm:"size:255"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

// Location содержит адрес и координаты пользователя.
// Координаты хранятся как текст, точность не контролируется.
type Location struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;uniqueIndex"`
	StreetNumber string    `gorm:"size:255"`
	StreetName   string    `gorm:"size:255"`
	City         string    `gorm:"size:255;index"`
	State        string    `gorm:"size:255"`
	Country      string    `gorm:"size:255;index"`
	Postcode     string    `gorm:"size:255"`
	Latitude     string    `gorm:"size:255"`
	Longitude    string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// FullStreet возвращает номер дома и улицу через пробел
func (l *Location) FullStreet() string {
	return l.StreetNumber + " " + l.StreetName
}

// TableName устанавливает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// TableName устанавливает имя таблицы для модели UserDetail
func (UserDetail) TableName() string {
	return "user_details"
}

// TableName устанавливает имя таблицы для модели Location
func (Location) TableName() string {
	return "locations"
}
