// Package catalog implements search, sorting, pagination and the
// validated mutation path shared by the page layer and the JSON API.
package catalog

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/models"
	"github.com/diewo77/librairie/internal/validation"
)

// PageSize is the fixed number of books per result page.
const PageSize = 9

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// sortColumns maps the public sort keys onto ORDER BY clauses. Anything
// else keeps insertion order.
var sortColumns = map[string]string{
	"price_asc":   "books.price asc",
	"price_desc":  "books.price desc",
	"date_asc":    "books.date asc",
	"date_desc":   "books.date desc",
	"rating_asc":  "books.rate asc",
	"rating_desc": "books.rate desc",
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{DB: db} }

// Page is one page of search results plus the numbers the template needs
// to render pagination links.
type Page struct {
	Books      []models.Book
	Number     int   // 1-based, clamped
	TotalPages int   // at least 1
	TotalBooks int64
	Query      string
	Sort       string
}

// searchScope restricts books to those whose title, description or author
// name contains the query, case-insensitive.
func searchScope(query string) func(*gorm.DB) *gorm.DB {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	return func(tx *gorm.DB) *gorm.DB {
		return tx.
			Joins("LEFT JOIN authors ON authors.id = books.author_id").
			Where("lower(books.title) LIKE ? OR lower(books.description) LIKE ? OR lower(authors.name) LIKE ?",
				like, like, like)
	}
}

// ListBooks filters, sorts and paginates the catalog. Out-of-range page
// numbers clamp to the nearest valid page instead of erroring.
func (s *Service) ListBooks(query, sort string, page int) (*Page, error) {
	base := func() *gorm.DB {
		tx := s.DB.Model(&models.Book{})
		if strings.TrimSpace(query) != "" {
			tx = tx.Scopes(searchScope(query))
		}
		return tx
	}

	var count int64
	if err := base().Count(&count).Error; err != nil {
		return nil, err
	}

	totalPages := int((count + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	order, known := sortColumns[sort]
	if !known {
		order = "books.id asc"
		sort = ""
	}

	var books []models.Book
	err := base().
		Select("books.*").
		Preload("Author").
		Preload("Categories").
		Order(order).
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&books).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Books:      books,
		Number:     page,
		TotalPages: totalPages,
		TotalBooks: count,
		Query:      query,
		Sort:       sort,
	}, nil
}

// AllBooks returns the full catalog with associations loaded (API list,
// admin account page).
func (s *Service) AllBooks() ([]models.Book, error) {
	var books []models.Book
	err := s.DB.Preload("Author").Preload("Categories").Order("id asc").Find(&books).Error
	return books, err
}

// GetBook loads one book with its associations.
func (s *Service) GetBook(id uint) (*models.Book, error) {
	var book models.Book
	err := s.DB.Preload("Author").Preload("Categories").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Autocomplete returns the titles containing term, case-insensitive.
// An empty term yields an empty list, never nil.
func (s *Service) Autocomplete(term string) ([]string, error) {
	titles := []string{}
	term = strings.TrimSpace(term)
	if term == "" {
		return titles, nil
	}
	err := s.DB.Model(&models.Book{}).
		Where("lower(title) LIKE ?", "%"+strings.ToLower(term)+"%").
		Order("title asc").
		Pluck("title", &titles).Error
	return titles, err
}

// BookInput carries raw field values from either a form or a JSON body.
// Numeric and date fields stay strings so each bad value produces a
// field-level violation instead of a decode failure.
type BookInput struct {
	Title       string
	Description string
	Author      string
	Price       string
	Date        string
	Rate        string
	Cover       string
	Categories  []uint
}

type parsedBook struct {
	price float64
	rate  float64
	date  time.Time
}

// validate applies the shared field rules and returns the parsed values.
func (in *BookInput) validate() (parsedBook, validation.Violations) {
	v := validation.Violations{}
	var p parsedBook
	validation.Required("title", in.Title, v)
	validation.Required("price", in.Price, v)
	validation.Required("date", in.Date, v)
	validation.Required("rate", in.Rate, v)
	if _, bad := v["price"]; !bad {
		p.price = validation.Float("price", in.Price, v)
		validation.NonNegative("price", p.price, v)
	}
	if _, bad := v["rate"]; !bad {
		p.rate = validation.Float("rate", in.Rate, v)
		validation.Range("rate", p.rate, 0, 5, v)
	}
	if _, bad := v["date"]; !bad {
		p.date = validation.Date("date", in.Date, v)
	}
	return p, v
}

// resolveCategories loads the referenced categories, deduplicating ids.
// Unknown ids are a field violation, mirroring what the form selects and
// the API contract allow; store failures propagate as errors.
func (s *Service) resolveCategories(ids []uint, v validation.Violations) ([]models.Category, error) {
	seen := map[uint]bool{}
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}
	var cats []models.Category
	if err := s.DB.Find(&cats, unique).Error; err != nil {
		return nil, err
	}
	if len(cats) != len(unique) {
		v.Add("categories", "unknown_category")
		return nil, nil
	}
	return cats, nil
}

// resolveAuthor finds or creates the author by name. Book writes are
// admin-only, so implicit author creation stays behind the same gate.
func (s *Service) resolveAuthor(name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var author models.Author
	err := s.DB.Where("name = ?", name).First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		author = models.Author{Name: name}
		err = s.DB.Create(&author).Error
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// CreateBook validates and persists a new book. On violations nothing is
// written and the caller renders the field errors.
func (s *Service) CreateBook(in BookInput) (*models.Book, validation.Violations, error) {
	parsed, v := in.validate()
	cats, err := s.resolveCategories(in.Categories, v)
	if err != nil {
		return nil, nil, err
	}
	if !v.Empty() {
		return nil, v, nil
	}
	author, err := s.resolveAuthor(in.Author)
	if err != nil {
		return nil, nil, err
	}
	book := models.Book{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       parsed.price,
		Date:        parsed.date,
		Rate:        parsed.rate,
		Cover:       strings.TrimSpace(in.Cover),
		Categories:  cats,
	}
	if author != nil {
		book.AuthorID = &author.ID
		book.Author = author
	}
	if err := s.DB.Create(&book).Error; err != nil {
		return nil, nil, err
	}
	return &book, nil, nil
}

// UpdateBook validates and applies a full update, replacing the category
// set. Last write wins; there is no version check.
func (s *Service) UpdateBook(id uint, in BookInput) (*models.Book, validation.Violations, error) {
	var book models.Book
	if err := s.DB.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	parsed, v := in.validate()
	cats, err := s.resolveCategories(in.Categories, v)
	if err != nil {
		return nil, nil, err
	}
	if !v.Empty() {
		return nil, v, nil
	}
	author, err := s.resolveAuthor(in.Author)
	if err != nil {
		return nil, nil, err
	}
	book.Title = strings.TrimSpace(in.Title)
	book.Description = in.Description
	book.Price = parsed.price
	book.Date = parsed.date
	book.Rate = parsed.rate
	book.Cover = strings.TrimSpace(in.Cover)
	book.AuthorID = nil
	book.Author = nil
	if author != nil {
		book.AuthorID = &author.ID
	}
	if err := s.DB.Save(&book).Error; err != nil {
		return nil, nil, err
	}
	if err := s.DB.Model(&book).Association("Categories").Replace(cats); err != nil {
		return nil, nil, err
	}
	updated, err := s.GetBook(book.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// DeleteBook removes the book and its join rows.
func (s *Service) DeleteBook(id uint) error {
	var book models.Book
	if err := s.DB.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.DB.Model(&book).Association("Categories").Clear(); err != nil {
		return err
	}
	return s.DB.Delete(&book).Error
}

// CreateCategory inserts a category with a trimmed, non-empty, unique
// name. Duplicates return ErrConflict.
func (s *Service) CreateCategory(name string) (*models.Category, validation.Violations, error) {
	name = strings.TrimSpace(name)
	v := validation.Violations{}
	validation.Required("categoryName", name, v)
	if !v.Empty() {
		return nil, v, nil
	}
	var count int64
	if err := s.DB.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, ErrConflict
	}
	cat := models.Category{Name: name}
	if err := s.DB.Create(&cat).Error; err != nil {
		return nil, nil, err
	}
	return &cat, nil, nil
}

// DeleteCategory removes a category and its join rows; the books it was
// attached to are never touched.
func (s *Service) DeleteCategory(id uint) error {
	var cat models.Category
	if err := s.DB.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.DB.Exec("DELETE FROM book_categories WHERE category_id = ?", id).Error; err != nil {
		return err
	}
	return s.DB.Delete(&cat).Error
}

// AllCategories returns every category, for form selects.
func (s *Service) AllCategories() ([]models.Category, error) {
	var cats []models.Category
	err := s.DB.Order("name asc").Find(&cats).Error
	return cats, err
}

// CountBooks is used by tests and the account page header.
func (s *Service) CountBooks() (int64, error) {
	var count int64
	err := s.DB.Model(&models.Book{}).Count(&count).Error
	return count, err
}
