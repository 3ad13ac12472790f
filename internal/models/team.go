package models

import "gorm.io/datatypes"

type Team struct {
	BaseModel

	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	CreatedBy   string         `gorm:"type:uuid;index" json:"created_by"`
	Creator     *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Settings    datatypes.JSON `json:"settings,omitempty"`

	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Tasks   []Task       `gorm:"foreignKey:TeamID" json:"-"`
}
