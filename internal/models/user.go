package models

// User describes a registered account. Email is stored lowercased so lookups
// stay case-insensitive across database collations.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`

	Memberships []TeamMember `gorm:"foreignKey:UserID" json:"-"`
}

// FullName renders the display name used in task and member listings.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
