package catalog

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Author{}, &models.Category{}, &models.Book{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateBook(t *testing.T, svc *Service, in BookInput) *models.Book {
	t.Helper()
	book, v, err := svc.CreateBook(in)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if !v.Empty() {
		t.Fatalf("unexpected violations: %v", v)
	}
	return book
}

func TestSearchMatchesTitleDescriptionAuthor(t *testing.T) {
	svc := NewService(setupTestDB(t))
	mustCreateBook(t, svc, BookInput{Title: "Test Book", Price: "10", Date: "2023-01-01", Rate: "4"})
	mustCreateBook(t, svc, BookInput{Title: "Second", Description: "a TEST of patience", Price: "12", Date: "2023-01-02", Rate: "3"})
	mustCreateBook(t, svc, BookInput{Title: "Third", Author: "Testeva", Price: "14", Date: "2023-01-03", Rate: "2"})
	mustCreateBook(t, svc, BookInput{Title: "Unrelated", Description: "nothing here", Price: "16", Date: "2023-01-04", Rate: "1"})

	page, err := svc.ListBooks("Test", "", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalBooks != 3 {
		t.Fatalf("expected 3 matches got %d", page.TotalBooks)
	}
	for _, b := range page.Books {
		if b.Title == "Unrelated" {
			t.Fatalf("non-matching book returned")
		}
	}
}

func TestSortPriceAscending(t *testing.T) {
	svc := NewService(setupTestDB(t))
	prices := []string{"30", "10", "20"}
	for i, p := range prices {
		mustCreateBook(t, svc, BookInput{Title: fmt.Sprintf("B%d", i), Price: p, Date: "2023-01-01", Rate: "3"})
	}
	page, err := svc.ListBooks("", "price_asc", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(page.Books); i++ {
		if page.Books[i-1].Price > page.Books[i].Price {
			t.Fatalf("prices not non-decreasing: %v then %v", page.Books[i-1].Price, page.Books[i].Price)
		}
	}
}

func TestUnknownSortKeepsInsertionOrder(t *testing.T) {
	svc := NewService(setupTestDB(t))
	mustCreateBook(t, svc, BookInput{Title: "First", Price: "30", Date: "2023-01-01", Rate: "3"})
	mustCreateBook(t, svc, BookInput{Title: "Second", Price: "10", Date: "2023-01-01", Rate: "3"})
	page, err := svc.ListBooks("", "bogus", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Sort != "" {
		t.Fatalf("unknown sort should be normalized to empty, got %q", page.Sort)
	}
	if page.Books[0].Title != "First" || page.Books[1].Title != "Second" {
		t.Fatalf("unexpected order: %s, %s", page.Books[0].Title, page.Books[1].Title)
	}
}

func TestPaginationClampsOutOfRange(t *testing.T) {
	svc := NewService(setupTestDB(t))
	for i := 0; i < 12; i++ {
		mustCreateBook(t, svc, BookInput{Title: fmt.Sprintf("Book %02d", i), Price: "10", Date: "2023-01-01", Rate: "3"})
	}

	page, err := svc.ListBooks("", "", 99)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Number != 2 || page.TotalPages != 2 {
		t.Fatalf("expected page 2/2 got %d/%d", page.Number, page.TotalPages)
	}
	if len(page.Books) != 3 {
		t.Fatalf("expected 3 books on last page got %d", len(page.Books))
	}

	page, err = svc.ListBooks("", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Number != 1 || len(page.Books) != PageSize {
		t.Fatalf("expected full first page, got page %d with %d books", page.Number, len(page.Books))
	}
}

func TestPaginationEmptyCatalog(t *testing.T) {
	svc := NewService(setupTestDB(t))
	page, err := svc.ListBooks("", "", 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Number != 1 || page.TotalPages != 1 || len(page.Books) != 0 {
		t.Fatalf("expected empty page 1/1, got %d/%d with %d books", page.Number, page.TotalPages, len(page.Books))
	}
}

func TestAutocomplete(t *testing.T) {
	svc := NewService(setupTestDB(t))
	mustCreateBook(t, svc, BookInput{Title: "Le Petit Prince", Price: "8", Date: "1943-04-06", Rate: "5"})
	mustCreateBook(t, svc, BookInput{Title: "Prince of Tides", Price: "12", Date: "1986-01-01", Rate: "4"})
	mustCreateBook(t, svc, BookInput{Title: "Dune", Price: "15", Date: "1965-08-01", Rate: "5"})

	titles, err := svc.Autocomplete("prince")
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles got %v", titles)
	}

	titles, err = svc.Autocomplete("  ")
	if err != nil {
		t.Fatalf("autocomplete empty: %v", err)
	}
	if titles == nil || len(titles) != 0 {
		t.Fatalf("expected empty non-nil list got %#v", titles)
	}
}

func TestCreateBookValidation(t *testing.T) {
	svc := NewService(setupTestDB(t))
	_, v, err := svc.CreateBook(BookInput{
		Title: "Bad", Price: "-1", Date: "01/02/2023", Rate: "6",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, field := range []string{"price", "date", "rate"} {
		if _, ok := v[field]; !ok {
			t.Fatalf("expected violation for %s, got %v", field, v)
		}
	}
	count, err := svc.CountBooks()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid input must not persist, found %d books", count)
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	svc := NewService(setupTestDB(t))
	c1, _, err := svc.CreateCategory("Roman")
	if err != nil {
		t.Fatalf("cat1: %v", err)
	}
	c2, _, err := svc.CreateCategory("Policier")
	if err != nil {
		t.Fatalf("cat2: %v", err)
	}

	// Duplicate id in the input must not duplicate the association.
	book := mustCreateBook(t, svc, BookInput{
		Title: "Test Book", Price: "19.99", Date: "2023-01-01", Rate: "4.5",
		Categories: []uint{c1.ID, c2.ID, c1.ID},
	})

	got, err := svc.GetBook(book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Categories) != 2 {
		t.Fatalf("expected 2 categories got %d", len(got.Categories))
	}
	seen := map[uint]bool{}
	for _, c := range got.Categories {
		seen[c.ID] = true
	}
	if !seen[c1.ID] || !seen[c2.ID] {
		t.Fatalf("expected categories {%d,%d} got %v", c1.ID, c2.ID, seen)
	}
}

func TestUpdateBookReplacesCategories(t *testing.T) {
	svc := NewService(setupTestDB(t))
	c1, _, _ := svc.CreateCategory("Roman")
	c2, _, _ := svc.CreateCategory("Policier")
	book := mustCreateBook(t, svc, BookInput{
		Title: "Original", Price: "10", Date: "2023-01-01", Rate: "3",
		Categories: []uint{c1.ID},
	})

	updated, v, err := svc.UpdateBook(book.ID, BookInput{
		Title: "Renamed", Price: "12.50", Date: "2024-06-01", Rate: "4",
		Categories: []uint{c2.ID},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !v.Empty() {
		t.Fatalf("unexpected violations: %v", v)
	}
	if updated.Title != "Renamed" || updated.Price != 12.5 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if len(updated.Categories) != 1 || updated.Categories[0].ID != c2.ID {
		t.Fatalf("categories not replaced: %+v", updated.Categories)
	}
}

func TestUpdateBookNotFound(t *testing.T) {
	svc := NewService(setupTestDB(t))
	_, _, err := svc.UpdateBook(42, BookInput{Title: "X", Price: "1", Date: "2023-01-01", Rate: "1"})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestDeleteBookRemovesJoinRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	c1, _, _ := svc.CreateCategory("Roman")
	book := mustCreateBook(t, svc, BookInput{
		Title: "Doomed", Price: "10", Date: "2023-01-01", Rate: "3",
		Categories: []uint{c1.ID},
	})

	if err := svc.DeleteBook(book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var joins int64
	if err := db.Table("book_categories").Count(&joins).Error; err != nil {
		t.Fatalf("count joins: %v", err)
	}
	if joins != 0 {
		t.Fatalf("expected 0 join rows got %d", joins)
	}
	// The category itself survives.
	var cats int64
	db.Model(&models.Category{}).Count(&cats)
	if cats != 1 {
		t.Fatalf("category must survive book deletion")
	}
}

func TestDeleteCategoryKeepsBooks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	c1, _, _ := svc.CreateCategory("Roman")
	book := mustCreateBook(t, svc, BookInput{
		Title: "Survivor", Price: "10", Date: "2023-01-01", Rate: "3",
		Categories: []uint{c1.ID},
	})

	if err := svc.DeleteCategory(c1.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := svc.GetBook(book.ID)
	if err != nil {
		t.Fatalf("book must survive category deletion: %v", err)
	}
	if len(got.Categories) != 0 {
		t.Fatalf("expected no categories left got %d", len(got.Categories))
	}
}

func TestCreateBookStoreFailureIsAnError(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	if err := db.Exec("DROP TABLE categories").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	// A broken store must surface as an error, not as a field violation.
	_, v, err := svc.CreateBook(BookInput{
		Title: "Broken", Price: "10", Date: "2023-01-01", Rate: "3",
		Categories: []uint{1},
	})
	if err == nil {
		t.Fatalf("expected a store error")
	}
	if !v.Empty() {
		t.Fatalf("store failures are not validation failures: %v", v)
	}
}

func TestCreateCategoryConflictAndEmpty(t *testing.T) {
	svc := NewService(setupTestDB(t))
	if _, _, err := svc.CreateCategory("Roman"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := svc.CreateCategory("Roman"); err != ErrConflict {
		t.Fatalf("expected ErrConflict got %v", err)
	}
	_, v, err := svc.CreateCategory("   ")
	if err != nil {
		t.Fatalf("empty create: %v", err)
	}
	if _, ok := v["categoryName"]; !ok {
		t.Fatalf("expected categoryName violation got %v", v)
	}
}

func TestAuthorReusedAcrossBooks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	mustCreateBook(t, svc, BookInput{Title: "A", Author: "Jules Verne", Price: "10", Date: "1870-01-01", Rate: "5"})
	mustCreateBook(t, svc, BookInput{Title: "B", Author: "Jules Verne", Price: "11", Date: "1873-01-01", Rate: "5"})

	var authors int64
	db.Model(&models.Author{}).Count(&authors)
	if authors != 1 {
		t.Fatalf("expected 1 author got %d", authors)
	}
}

func TestBookPayloadFormatting(t *testing.T) {
	svc := NewService(setupTestDB(t))
	book := mustCreateBook(t, svc, BookInput{
		Title: "Test Book", Author: "Test Author", Price: "19.99", Date: "2023-01-01", Rate: "4.5",
	})
	got, err := svc.GetBook(book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p := NewBookPayload(got)
	if p.Price != "19.99" {
		t.Fatalf("expected price \"19.99\" got %q", p.Price)
	}
	if p.Rate != "4.50" {
		t.Fatalf("expected rate \"4.50\" got %q", p.Rate)
	}
	if p.Date != "2023-01-01" {
		t.Fatalf("expected date \"2023-01-01\" got %q", p.Date)
	}
	if p.Author != "Test Author" {
		t.Fatalf("expected author name got %q", p.Author)
	}
	if p.Categories == nil {
		t.Fatalf("categories must serialize as an empty list, not null")
	}
	if book.Date != time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected stored date %v", book.Date)
	}
}
