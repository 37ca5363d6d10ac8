package devserver

import (
	"strconv"

	"gorm.io/gorm"

	"shopfront/app/models"
)

// Account is the stub backend's user row. The mirrored cart is stored as
// one JSON document per account, matching the client's own persistence
// shape.
type Account struct {
	gorm.Model
	Name     string `gorm:"size:255;not null"`
	Email    string `gorm:"uniqueIndex;size:255;not null"`
	Password string `gorm:"size:255;not null"` // bcrypt hash
	Role     string `gorm:"size:50;default:customer"`
	CartJSON string `gorm:"type:text"`
}

// toUser converts the row to the wire identity the client consumes.
func (a Account) toUser() models.User {
	return models.User{
		ID:    strconv.FormatUint(uint64(a.ID), 10),
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	}.WithDefaultRole()
}
