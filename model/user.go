package model

import "time"

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"unique"`
	Username     string `json:"username" gorm:"unique;not null"`
	Role         string `json:"role" gorm:"default:client"`
	CoinsBalance int64  `json:"coins_balance" gorm:"not null;default:0;check:coins_balance >= 0"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
