package catalog

import (
	"strconv"

	"github.com/diewo77/librairie/internal/models"
	"github.com/diewo77/librairie/internal/validation"
)

// BookPayload is the JSON shape of a book. Price and rate are rendered as
// two-fraction-digit strings so "19.99" round-trips exactly; categories
// serialize as the list of category ids.
type BookPayload struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	Rate        string `json:"rate"`
	Cover       string `json:"cover,omitempty"`
	Categories  []uint `json:"categories"`
}

func FormatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// NewBookPayload serializes one book; associations must be preloaded.
func NewBookPayload(b *models.Book) BookPayload {
	p := BookPayload{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Price:       FormatDecimal(b.Price),
		Date:        b.Date.Format(validation.DateLayout),
		Rate:        FormatDecimal(b.Rate),
		Cover:       b.Cover,
		Categories:  make([]uint, 0, len(b.Categories)),
	}
	if b.Author != nil {
		p.Author = b.Author.Name
	}
	for _, c := range b.Categories {
		p.Categories = append(p.Categories, c.ID)
	}
	return p
}

// NewBookPayloads serializes a slice, always returning a non-nil slice so
// the API never emits JSON null for an empty catalog.
func NewBookPayloads(books []models.Book) []BookPayload {
	out := make([]BookPayload, 0, len(books))
	for i := range books {
		out = append(out, NewBookPayload(&books[i]))
	}
	return out
}
