package models

import "time"

type Company struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	Name      string  `gorm:"type:text;not null"`
	Region    *string `gorm:"type:text"`
	IsActive  bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Company) TableName() string {
	return "companies"
}

type User struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	CompanyID *string `gorm:"type:uuid;index"`
	Email     string  `gorm:"size:320;not null;uniqueIndex"`
	Region    *string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
