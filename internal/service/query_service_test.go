package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"RandomUserService/internal/models"
	"RandomUserService/internal/repository/postgres"
	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
)

// Мок хранилища для запросов списка
type MockUserLister struct {
	users      []models.User
	total      int64
	err        error
	calls      int
	lastFilter postgres.UserFilter
	lastPage   postgres.Page
}

func (m *MockUserLister) List(ctx context.Context, filter postgres.UserFilter, page postgres.Page) ([]models.User, int64, error) {
	m.calls++
	m.lastFilter = filter
	m.lastPage = page
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.users, m.total, nil
}

func (m *MockUserLister) GetByID(ctx context.Context, id uint) (*models.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func parisUser() models.User {
	dob := time.Date(1988, 4, 12, 9, 30, 0, 0, time.UTC)
	return models.User{
		ID:        1,
		FirstName: "Louise",
		LastName:  "Moreau",
		Email:     "louise.moreau@example.com",
		Username:  "bluecat214",
		Detail: &models.UserDetail{
			Gender:           models.GenderFemale,
			DateOfBirth:      &dob,
			Phone:            "01-23-45-67-89",
			Cell:             "06-12-34-56-78",
			PictureLarge:     "https://randomuser.me/api/portraits/women/1.jpg",
			PictureMedium:    "https://randomuser.me/api/portraits/med/women/1.jpg",
			PictureThumbnail: "https://randomuser.me/api/portraits/thumb/women/1.jpg",
		},
		Location: &models.Location{
			StreetNumber: "12",
			StreetName:   "Rue de la Paix",
			City:         "Paris",
			State:        "Île-de-France",
			Country:      "France",
			Postcode:     "75002",
		},
	}
}

// TestQueryList_InvalidGender тестирует отказ без запроса к хранилищу
func TestQueryList_InvalidGender(t *testing.T) {
	lister := &MockUserLister{}
	svc := NewQueryService(lister, zap.NewNop())

	_, err := svc.List(context.Background(), ListUsersParams{Gender: "invalid"})

	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["gender"]; !ok {
		t.Errorf("Expected gender error, got %v", verr.Fields)
	}
	if lister.calls != 0 {
		t.Errorf("Expected no store calls, got %d", lister.calls)
	}
}

// TestQueryList_ValidationErrors тестирует проверку параметров
func TestQueryList_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		params ListUsersParams
		fields []string
	}{
		{"LimitTooLarge", ListUsersParams{Limit: "150"}, []string{"limit"}},
		{"LimitZero", ListUsersParams{Limit: "0"}, []string{"limit"}},
		{"LimitNotInteger", ListUsersParams{Limit: "ten"}, []string{"limit"}},
		{"PageZero", ListUsersParams{Page: "0"}, []string{"page"}},
		{"PageNotInteger", ListUsersParams{Page: "1.5"}, []string{"page"}},
		{"PageMaxInt", ListUsersParams{Page: "9223372036854775807"}, []string{"page"}},
		{"PageOffsetOverflow", ListUsersParams{Limit: "100", Page: "92233720368547759"}, []string{"page"}},
		{"CityTooLong", ListUsersParams{City: strings.Repeat("a", 256)}, []string{"city"}},
		{"CountryTooLong", ListUsersParams{Country: strings.Repeat("b", 300)}, []string{"country"}},
		{"Aggregated", ListUsersParams{Gender: "x", Limit: "1000"}, []string{"gender", "limit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &MockUserLister{}
			svc := NewQueryService(lister, zap.NewNop())

			_, err := svc.List(context.Background(), tt.params)

			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("Expected %d field errors, got %v", len(tt.fields), verr.Fields)
			}
			for _, field := range tt.fields {
				if _, ok := verr.Fields[field]; !ok {
					t.Errorf("Expected error for %s, got %v", field, verr.Fields)
				}
			}
			if lister.calls != 0 {
				t.Errorf("Expected no store calls, got %d", lister.calls)
			}
		})
	}
}

// TestQueryList_Defaults тестирует значения по умолчанию и передачу фильтров
func TestQueryList_Defaults(t *testing.T) {
	lister := &MockUserLister{users: []models.User{parisUser()}, total: 1}
	svc := NewQueryService(lister, zap.NewNop())

	result, err := svc.List(context.Background(), ListUsersParams{City: "Paris", Country: "fr"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if lister.lastPage.Limit != DefaultLimit || lister.lastPage.Offset != 0 {
		t.Errorf("Expected default page window, got %+v", lister.lastPage)
	}
	if lister.lastFilter.City != "Paris" || lister.lastFilter.Country != "fr" {
		t.Errorf("Unexpected filter: %+v", lister.lastFilter)
	}
	if result.Status != "success" || result.PerPage != 10 || result.CurrentPage != 1 || result.LastPage != 1 {
		t.Errorf("Unexpected pagination: %+v", result)
	}
	if len(result.Data) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(result.Data))
	}
	if keys := result.Data[0].Keys(); len(keys) != len(CanonicalFields) {
		t.Errorf("Expected all %d fields, got %v", len(CanonicalFields), keys)
	}
}

// TestQueryList_Pagination тестирует вычисление смещения и последней страницы
func TestQueryList_Pagination(t *testing.T) {
	lister := &MockUserLister{users: []models.User{parisUser()}, total: 23}
	svc := NewQueryService(lister, zap.NewNop())

	result, err := svc.List(context.Background(), ListUsersParams{Limit: "5", Page: "3"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if lister.lastPage.Limit != 5 || lister.lastPage.Offset != 10 {
		t.Errorf("Expected limit 5 offset 10, got %+v", lister.lastPage)
	}
	if result.Total != 23 || result.LastPage != 5 || result.CurrentPage != 3 {
		t.Errorf("Unexpected pagination: total=%d last=%d current=%d", result.Total, result.LastPage, result.CurrentPage)
	}
}

// TestQueryList_LargestPage тестирует, что допустимая страница дает неотрицательное смещение
func TestQueryList_LargestPage(t *testing.T) {
	lister := &MockUserLister{total: 5}
	svc := NewQueryService(lister, zap.NewNop())

	result, err := svc.List(context.Background(), ListUsersParams{Limit: "100", Page: "92233720368547758"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if lister.lastPage.Offset < 0 {
		t.Errorf("Expected non-negative offset, got %d", lister.lastPage.Offset)
	}
	if lister.lastPage.Offset != 9223372036854775700 {
		t.Errorf("Expected offset 9223372036854775700, got %d", lister.lastPage.Offset)
	}
	if len(result.Data) != 0 || result.Total != 5 || result.LastPage != 1 {
		t.Errorf("Unexpected result: total=%d last=%d rows=%d", result.Total, result.LastPage, len(result.Data))
	}
}

// TestQueryList_Empty тестирует пустой результат
func TestQueryList_Empty(t *testing.T) {
	lister := &MockUserLister{}
	svc := NewQueryService(lister, zap.NewNop())

	result, err := svc.List(context.Background(), ListUsersParams{City: "Atlantis"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Total != 0 || result.LastPage != 1 {
		t.Errorf("Expected total 0 and last page 1, got %+v", result)
	}

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}
	if !strings.Contains(string(body), `"data":[]`) {
		t.Errorf("Expected empty data array, got %s", body)
	}
}

// TestQueryList_FieldSelection тестирует выбор полей
func TestQueryList_FieldSelection(t *testing.T) {
	lister := &MockUserLister{users: []models.User{parisUser()}, total: 1}
	svc := NewQueryService(lister, zap.NewNop())

	result, err := svc.List(context.Background(), ListUsersParams{Fields: "name, email,bogus"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	body, err := json.Marshal(result.Data[0])
	if err != nil {
		t.Fatalf("Failed to marshal row: %v", err)
	}
	expected := `{"name":"Louise Moreau","email":"louise.moreau@example.com"}`
	if string(body) != expected {
		t.Errorf("Expected %s, got %s", expected, body)
	}
}

// TestQueryList_StoreError тестирует ошибку хранилища
func TestQueryList_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	lister := &MockUserLister{err: storeErr}
	svc := NewQueryService(lister, zap.NewNop())

	_, err := svc.List(context.Background(), ListUsersParams{})
	if !errors.Is(err, storeErr) {
		t.Errorf("Expected wrapped store error, got %v", err)
	}
	if errors.Is(err, apperrors.ErrValidation) {
		t.Error("Store error must not be reported as validation error")
	}
}

// TestQueryGet тестирует получение одного пользователя
func TestQueryGet(t *testing.T) {
	lister := &MockUserLister{users: []models.User{parisUser()}, total: 1}
	svc := NewQueryService(lister, zap.NewNop())

	row, err := svc.Get(context.Background(), 1, "id,city")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if keys := row.Keys(); len(keys) != 2 || keys[0] != "id" || keys[1] != "city" {
		t.Errorf("Unexpected keys: %v", keys)
	}

	if _, err := svc.Get(context.Background(), 99, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestUserRow_FullRow тестирует построение строки со всеми полями
func TestUserRow_FullRow(t *testing.T) {
	user := parisUser()
	row := NewUserRow(&user).Project(CanonicalFields)

	body, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Failed to marshal row: %v", err)
	}

	expected := `{"id":1,"name":"Louise Moreau","email":"louise.moreau@example.com","username":"bluecat214",` +
		`"gender":"female","city":"Paris","country":"France","first_name":"Louise","last_name":"Moreau",` +
		`"phone":"01-23-45-67-89","cell":"06-12-34-56-78","date_of_birth":"1988-04-12T09:30:00Z",` +
		`"street":"12 Rue de la Paix","state":"Île-de-France","postcode":"75002",` +
		`"picture_large":"https://randomuser.me/api/portraits/women/1.jpg",` +
		`"picture_medium":"https://randomuser.me/api/portraits/med/women/1.jpg",` +
		`"picture_thumbnail":"https://randomuser.me/api/portraits/thumb/women/1.jpg"}`
	if string(body) != expected {
		t.Errorf("Unexpected row:\n got: %s\nwant: %s", body, expected)
	}
}

// TestUserRow_MissingRelations тестирует null для полей без деталей и адреса
func TestUserRow_MissingRelations(t *testing.T) {
	user := models.User{ID: 2, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Username: "jane"}
	row := NewUserRow(&user).Project(CanonicalFields)

	for _, field := range []string{"gender", "city", "country", "phone", "cell", "date_of_birth", "street", "state", "postcode", "picture_large", "picture_medium", "picture_thumbnail"} {
		value, ok := row.Get(field)
		if !ok {
			t.Errorf("Expected field %s to be present", field)
			continue
		}
		if p, isPtr := value.(*string); !isPtr || p != nil {
			t.Errorf("Expected %s to be null, got %#v", field, value)
		}
	}

	body, err := json.Marshal(NewUserRow(&user).Project([]string{"name", "gender"}))
	if err != nil {
		t.Fatalf("Failed to marshal row: %v", err)
	}
	if string(body) != `{"name":"Jane Doe","gender":null}` {
		t.Errorf("Unexpected row: %s", body)
	}
}

// TestParseFields тестирует разбор списка полей
func TestParseFields(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"", CanonicalFields},
		{"  ,  , ", CanonicalFields},
		{"email,name", []string{"name", "email"}},
		{" city , gender ,city", []string{"gender", "city"}},
		{"nope,unknown", []string{}},
		{"picture_thumbnail,id", []string{"id", "picture_thumbnail"}},
	}

	for _, tt := range tests {
		got := ParseFields(tt.raw)
		if strings.Join(got, ",") != strings.Join(tt.expected, ",") || len(got) != len(tt.expected) {
			t.Errorf("ParseFields(%q) = %v, expected %v", tt.raw, got, tt.expected)
		}
	}
}

// TestLastPage тестирует вычисление последней страницы
func TestLastPage(t *testing.T) {
	tests := []struct {
		total    int64
		perPage  int
		expected int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
	}

	for _, tt := range tests {
		if got := lastPage(tt.total, tt.perPage); got != tt.expected {
			t.Errorf("lastPage(%d, %d) = %d, expected %d", tt.total, tt.perPage, got, tt.expected)
		}
	}
}
