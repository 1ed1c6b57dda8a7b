package models

// ProfileData представляет один профиль, полученный из внешнего API,
// в плоском виде, пригодном для сохранения в три таблицы
type ProfileData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`

	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
	Cell        string `json:"cell"`

	PictureLarge     string `json:"picture_large"`
	PictureMedium    string `json:"picture_medium"`
	PictureThumbnail string `json:"picture_thumbnail"`

	StreetNumber string `json:"street_number"`
	StreetName   string `json:"street_name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Postcode     string `json:"postcode"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

// CreateUserRequest представляет запрос на создание пользователя
type CreateUserRequest struct {
	Name                 string `json:"name"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Username             string `json:"username"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UserResponse представляет ответ с данными созданного пользователя
type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}
