// internal/models/partner.go
package models

// Supplier is the counterparty of a purchase. Referenced by id only;
// deleting a supplier never cascades into transactions.
type Supplier struct {
	BaseModel
	Name          string `json:"name" gorm:"size:255;not null;index"`
	ContactPerson string `json:"contact_person" gorm:"size:100"`
	Phone         string `json:"phone" gorm:"size:50"`
	Email         string `json:"email" gorm:"size:100"`
	Address       string `json:"address" gorm:"size:255"`
}

// Customer is the counterparty of an order.
type Customer struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null;index"`
	Phone   string `json:"phone" gorm:"size:50"`
	Email   string `json:"email" gorm:"size:100"`
	Address string `json:"address" gorm:"size:255"`
}
