package models

import "time"

// Company holds the single contact record shown on reports and the contact page.
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nombre"`
	Phone     string    `json:"telefono"`
	Email     string    `json:"correo"`
	Address   string    `json:"direccion"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
