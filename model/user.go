// file: model/user.go

package model

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the persisted user entity.
type User struct {
	ID        uuid.UUID
	Login     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserResponse is the wire representation of a user for both JSON and XML.
type UserResponse struct {
	XMLName   xml.Name  `json:"-" xml:"user"`
	ID        uuid.UUID `json:"id" xml:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Login     string    `json:"login" xml:"login" example:"jdoe"`
	FirstName string    `json:"firstName" xml:"firstName" example:"John"`
	LastName  string    `json:"lastName" xml:"lastName" example:"Doe"`
	FullName  string    `json:"fullName" xml:"fullName" example:"John Doe"`
}

// UserList renders as a JSON array and as <users><user/>...</users> in XML.
type UserList []UserResponse

func (l UserList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "users"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, u := range l {
		if err := e.EncodeElement(u, xml.StartElement{Name: xml.Name{Local: "user"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// CreatedResponse carries the identifier of a newly created user.
type CreatedResponse struct {
	XMLName xml.Name  `json:"-" xml:"created"`
	ID      uuid.UUID `json:"id" xml:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
}
