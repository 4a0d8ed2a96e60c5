// Command seed fills the database with a demo catalog: the base category
// set, a handful of authors and twenty generated books. It is an offline
// convenience tool; the server never depends on it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/librairie/internal/config"
	"github.com/diewo77/librairie/internal/db"
	"github.com/diewo77/librairie/internal/models"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	conn, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	if err := db.Seed(conn); err != nil {
		logger.Fatal().Err(err).Msg("base seed failed")
	}

	var categories []models.Category
	if err := conn.Order("id asc").Find(&categories).Error; err != nil {
		logger.Fatal().Err(err).Msg("loading categories")
	}

	today := time.Now().Truncate(24 * time.Hour)
	for i := 1; i <= 20; i++ {
		title := fmt.Sprintf("Book Title %d", i)
		var count int64
		conn.Model(&models.Book{}).Where("title = ?", title).Count(&count)
		if count > 0 {
			continue
		}
		author := models.Author{Name: fmt.Sprintf("Author %d", i)}
		if err := conn.Where("name = ?", author.Name).FirstOrCreate(&author).Error; err != nil {
			logger.Fatal().Err(err).Msg("author")
		}
		book := models.Book{
			Title:       title,
			Description: fmt.Sprintf("Description for book %d", i),
			Price:       19.99 + float64(i),
			AuthorID:    &author.ID,
			Date:        today,
			Rate:        4.5,
		}
		if len(categories) > 1 {
			book.Categories = []models.Category{
				categories[i%len(categories)],
				categories[(i+1)%len(categories)],
			}
		} else if len(categories) == 1 {
			book.Categories = categories
		}
		if err := conn.Create(&book).Error; err != nil {
			logger.Fatal().Err(err).Str("title", title).Msg("book")
		}
		logger.Info().Str("title", title).Msg("book added")
	}
}
