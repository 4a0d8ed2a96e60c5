package models

import "time"

// Catalog entities. Books reference an Author and carry a many-to-many
// category set through the explicit book_categories join table (composite
// primary key, so a pair can only exist once).

type Author struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"unique;not null;index"`
	Photo     string // chemin sous static/, optionnel
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"unique;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null;index"`
	Description string `gorm:"type:text"`
	// Stored as float64 like the rest of the money fields in this codebase;
	// rendered with two fraction digits at the serialization boundary.
	Price      float64 `gorm:"not null"`
	AuthorID   *uint   `gorm:"index"`
	Author     *Author `gorm:"foreignKey:AuthorID"`
	Date       time.Time
	Rate       float64 // note sur 5
	Cover      string  // chemin sous static/, optionnel
	Categories []Category `gorm:"many2many:book_categories"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
