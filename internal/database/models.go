package database

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID             int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string     `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash   string     `json:"-" gorm:"column:password;not null"`
	Role           string     `json:"role" gorm:"not null;default:'user'"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	LastLogin      *time.Time `json:"last_login"`
	FailedAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil    *time.Time `json:"locked_until"`
}

func (u *User) TableName() string {
	return "users"
}

type Product struct {
	ID            int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Code          string    `json:"code" gorm:"uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"not null"`
	UOM           string    `json:"uom" gorm:"column:uom;not null"`
	Price         float64   `json:"price" gorm:"type:real;not null"`
	Stock         int       `json:"stock" gorm:"not null;default:0"`
	RestockLevel  int       `json:"restock_level" gorm:"not null"`
	StockLocation *string   `json:"stock_location"`
	SuppliedBy    *string   `json:"supplied_by"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (p *Product) TableName() string {
	return "products"
}
