package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/data"
	dalsql "github.com/Roma7-7-7/vocabulary-trainer/internal/dal/sql"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

var (
	source string
	export string
	dbPath string
	chatID int64
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if err := validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := dalsql.Open(ctx, dbPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(2)
	}
	defer db.Close()

	tr := trainer.New(trainer.Dependencies{Store: store.New(dalsql.NewRepository(ctx, db, log), log)}, log)

	if export != "" {
		err = exportWords(ctx, tr)
	} else {
		err = importWords(ctx, tr)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	fmt.Println("done")
}

func importWords(ctx context.Context, tr *trainer.Trainer) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	entries, err := data.ReadEntries(ctx, f, uuid.NewString)
	var parsingErr *data.ParsingError
	if errors.As(err, &parsingErr) {
		fmt.Printf("skipped invalid lines: %v\n", parsingErr.InvalidLines)
	} else if err != nil {
		return fmt.Errorf("read words: %w", err)
	}

	added, err := tr.Import(ctx, chatID, entries)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d of %d words\n", added, len(entries))
	return nil
}

func exportWords(ctx context.Context, tr *trainer.Trainer) error {
	st, err := tr.Snapshot(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}

	f, err := os.Create(export)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	write := data.WriteCSV
	if strings.EqualFold(filepath.Ext(export), ".xlsx") {
		write = data.WriteXLSX
	}
	if err = write(f, st.Words); err != nil {
		return fmt.Errorf("write words: %w", err)
	}
	fmt.Printf("exported %d words\n", len(st.Words))
	return nil
}

func validate() error {
	if source == "" && export == "" {
		return errors.New("source or export file is required")
	}

	if source != "" && export != "" {
		return errors.New("source and export files are mutually exclusive")
	}

	if dbPath == "" {
		return errors.New("database path is required")
	}

	if chatID == 0 {
		return errors.New("chat ID is required")
	}

	return nil
}

func init() {
	flag.StringVar(&source, "source", "", "CSV file with Polish,English columns to import")
	flag.StringVar(&export, "export", "", "file to export the word list to, .csv or .xlsx")
	flag.StringVar(&dbPath, "db", "vocabulary.db", "database path")
	flag.Int64Var(&chatID, "chat-id", 0, "chat ID")
	flag.Parse()
}
