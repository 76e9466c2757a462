package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"catalogue/internal/apperr"
	"catalogue/internal/author"
	"catalogue/internal/book"
	"catalogue/internal/config"
	"catalogue/internal/platform/logging"
	"catalogue/internal/platform/postgres"

	"go.uber.org/zap"
)

func main() {
	count := flag.Int("count", 1000, "number of books to create")
	seed := flag.Int64("seed", 1, "random seed; the same seed yields the same ISBNs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Store != config.StorePostgres {
		log.Fatalf("seed needs STORE=%s, got %q", config.StorePostgres, cfg.Store)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("connect database", zap.String("dsn", postgres.RedactDSN(cfg.DBDSN)), zap.Error(err))
	}
	defer pool.Close()

	tx := postgres.NewTxManager(pool)
	authors := author.NewService(author.NewPostgresRepo(pool, cfg.DBTimeout), tx, nil, nil, logger)
	books := book.NewService(book.NewPostgresRepo(pool, cfg.DBTimeout), authors, tx, nil, nil, logger)

	rng := rand.New(rand.NewSource(*seed))
	created, skipped := 0, 0
	for i := 0; i < *count; i++ {
		in := randomBook(rng, i)
		_, err := books.Create(ctx, in)
		switch apperr.KindOf(err) {
		case apperr.Unexpected:
			if err != nil {
				logger.Fatal("create book", zap.String("isbn", in.ISBN), zap.Error(err))
			}
			created++
		default:
			// Re-running with the same seed hits existing ISBNs.
			skipped++
		}

		if (i+1)%100 == 0 {
			logger.Info("seed progress", zap.Int("done", i+1), zap.Int("total", *count))
		}
	}

	logger.Info("seed finished", zap.Int("created", created), zap.Int("skipped", skipped))
}

var (
	firstNames = []string{"Albert", "Marguerite", "Victor", "George", "Simone", "Jules", "Colette", "Emile", "Gustave", "Irene"}
	lastNames  = []string{"Camus", "Duras", "Hugo", "Sand", "Verne", "Zola", "Flaubert", "Nemirovsky", "Proust", "Balzac"}
	words      = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Nature", "History", "Future", "Past", "Wisdom",
		"Light", "Darkness", "World", "Time", "Space", "Mind", "Soul",
	}
)

func randomBook(rng *rand.Rand, i int) book.Input {
	n := 1 + rng.Intn(3)
	names := make([]string, 0, n)
	for j := 0; j < n; j++ {
		names = append(names, firstNames[rng.Intn(len(firstNames))]+" "+lastNames[rng.Intn(len(lastNames))])
	}

	return book.Input{
		ISBN:            fmt.Sprintf("978%010d", rng.Int63n(1e10)),
		Title:           fmt.Sprintf("The %s of %s %d", words[rng.Intn(len(words))], words[rng.Intn(len(words))], i+1),
		Authors:         names,
		PublicationDate: book.NewDate(1900+rng.Intn(125), time.Month(1+rng.Intn(12)), 1+rng.Intn(28)),
		Summary:         fmt.Sprintf("A book about %s.", words[rng.Intn(len(words))]),
		PageCount:       80 + rng.Intn(800),
	}
}
