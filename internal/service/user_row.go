package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"RandomUserService/internal/models"
)

// CanonicalFields полный набор полей строки ответа в порядке вывода
var CanonicalFields = []string{
	"id",
	"name",
	"email",
	"username",
	"gender",
	"city",
	"country",
	"first_name",
	"last_name",
	"phone",
	"cell",
	"date_of_birth",
	"street",
	"state",
	"postcode",
	"picture_large",
	"picture_medium",
	"picture_thumbnail",
}

var canonicalIndex = func() map[string]int {
	index := make(map[string]int, len(CanonicalFields))
	for i, field := range CanonicalFields {
		index[field] = i
	}
	return index
}()

// UserRow строка ответа со всеми каноническими полями.
// Поля из отсутствующих деталей или адреса равны nil.
type UserRow struct {
	ID               uint
	Name             string
	Email            string
	Username         string
	Gender           *string
	City             *string
	Country          *string
	FirstName        string
	LastName         string
	Phone            *string
	Cell             *string
	DateOfBirth      *string
	Street           *string
	State            *string
	Postcode         *string
	PictureLarge     *string
	PictureMedium    *string
	PictureThumbnail *string
}

// NewUserRow строит строку ответа из пользователя с загруженными связями
func NewUserRow(user *models.User) UserRow {
	row := UserRow{
		ID:        user.ID,
		Name:      user.FullName(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}

	if d := user.Detail; d != nil {
		row.Gender = &d.Gender
		row.Phone = &d.Phone
		row.Cell = &d.Cell
		if d.DateOfBirth != nil {
			dob := d.DateOfBirth.UTC().Format(time.RFC3339)
			row.DateOfBirth = &dob
		}
		row.PictureLarge = &d.PictureLarge
		row.PictureMedium = &d.PictureMedium
		row.PictureThumbnail = &d.PictureThumbnail
	}

	if l := user.Location; l != nil {
		street := l.FullStreet()
		row.City = &l.City
		row.Country = &l.Country
		row.Street = &street
		row.State = &l.State
		row.Postcode = &l.Postcode
	}

	return row
}

// Value возвращает значение канонического поля
func (r UserRow) Value(field string) any {
	switch field {
	case "id":
		return r.ID
	case "name":
		return r.Name
	case "email":
		return r.Email
	case "username":
		return r.Username
	case "gender":
		return r.Gender
	case "city":
		return r.City
	case "country":
		return r.Country
	case "first_name":
		return r.FirstName
	case "last_name":
		return r.LastName
	case "phone":
		return r.Phone
	case "cell":
		return r.Cell
	case "date_of_birth":
		return r.DateOfBirth
	case "street":
		return r.Street
	case "state":
		return r.State
	case "postcode":
		return r.Postcode
	case "picture_large":
		return r.PictureLarge
	case "picture_medium":
		return r.PictureMedium
	case "picture_thumbnail":
		return r.PictureThumbnail
	default:
		return nil
	}
}

// Project оставляет только указанные поля; fields должны быть в каноническом порядке
func (r UserRow) Project(fields []string) Row {
	row := Row{
		keys:   make([]string, 0, len(fields)),
		values: make([]any, 0, len(fields)),
	}
	for _, field := range fields {
		if _, ok := canonicalIndex[field]; !ok {
			continue
		}
		row.keys = append(row.keys, field)
		row.values = append(row.values, r.Value(field))
	}
	return row
}

// ParseFields разбирает список полей через запятую.
// Возвращает пересечение с каноническим набором в каноническом порядке;
// неизвестные имена отбрасываются. Пустой список означает все поля.
func ParseFields(raw string) []string {
	requested := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			requested[name] = struct{}{}
		}
	}

	if len(requested) == 0 {
		return append([]string(nil), CanonicalFields...)
	}

	fields := make([]string, 0, len(requested))
	for _, field := range CanonicalFields {
		if _, ok := requested[field]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// Row JSON-объект с фиксированным порядком ключей
type Row struct {
	keys   []string
	values []any
}

// Keys возвращает имена полей строки по порядку
func (r Row) Keys() []string {
	return r.keys
}

// Get возвращает значение поля
func (r Row) Get(field string) (any, bool) {
	for i, key := range r.keys {
		if key == field {
			return r.values[i], true
		}
	}
	return nil, false
}

// MarshalJSON сериализует строку с сохранением порядка полей
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
