package randomuser

import (
	"bytes"
	"encoding/json"
	"strconv"

	"RandomUserService/internal/models"
)

// flexString принимает JSON строку или число: API отдает postcode
// и номер дома то числом, то строкой
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Gender string `json:"gender"`
	Name   struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Street struct {
			Number flexString `json:"number"`
			Name   string     `json:"name"`
		} `json:"street"`
		City        string     `json:"city"`
		State       string     `json:"state"`
		Country     string     `json:"country"`
		Postcode    flexString `json:"postcode"`
		Coordinates struct {
			Latitude  flexString `json:"latitude"`
			Longitude flexString `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
	Email string `json:"email"`
	Login struct {
		Username string `json:"username"`
	} `json:"login"`
	Dob struct {
		Date string `json:"date"`
	} `json:"dob"`
	Phone   string `json:"phone"`
	Cell    string `json:"cell"`
	Picture struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

func (r *result) toProfile() *models.ProfileData {
	return &models.ProfileData{
		FirstName:        r.Name.First,
		LastName:         r.Name.Last,
		Email:            r.Email,
		Username:         r.Login.Username,
		Gender:           r.Gender,
		DateOfBirth:      r.Dob.Date,
		Phone:            r.Phone,
		Cell:             r.Cell,
		PictureLarge:     r.Picture.Large,
		PictureMedium:    r.Picture.Medium,
		PictureThumbnail: r.Picture.Thumbnail,
		StreetNumber:     string(r.Location.Street.Number),
		StreetName:       r.Location.Street.Name,
		City:             r.Location.City,
		State:            r.Location.State,
		Country:          r.Location.Country,
		Postcode:         string(r.Location.Postcode),
		Latitude:         string(r.Location.Coordinates.Latitude),
		Longitude:        string(r.Location.Coordinates.Longitude),
	}
}
