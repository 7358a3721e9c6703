// Package db provides PostgreSQL access to the reading-tracker library:
// books, ratings, and stated preferences. Schema and migrations are owned by
// the CRUD service; this package only reads what the recommendation pipeline
// needs.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/reading-tracker/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetRatedBooks returns the user's rated books (score > 0) as prompt signals,
// most-recently-rated first.
func (db *DB) GetRatedBooks(ctx context.Context, userID uuid.UUID) ([]types.RatingSignal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT b.id, b.title, b.author, COALESCE(b.genres, '{}'), r.score, COALESCE(r.notes, '')
		 FROM ratings r
		 JOIN books b ON b.id = r.book_id
		 WHERE r.user_id = $1 AND r.score > 0
		 ORDER BY r.rated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rated books: %w", err)
	}
	defer rows.Close()

	var signals []types.RatingSignal
	for rows.Next() {
		var signal types.RatingSignal
		if err := rows.Scan(&signal.BookID, &signal.Title, &signal.Author, &signal.Genres, &signal.Score, &signal.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan rated book: %w", err)
		}
		signals = append(signals, signal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rated books: %w", err)
	}
	return signals, nil
}

// GetLibraryTitles returns every (title, author) pair in the user's library,
// rated or not, for ownership filtering.
func (db *DB) GetLibraryTitles(ctx context.Context, userID uuid.UUID) ([]types.OwnedBook, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT title, author FROM books WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query library titles: %w", err)
	}
	defer rows.Close()

	var owned []types.OwnedBook
	for rows.Next() {
		var book types.OwnedBook
		if err := rows.Scan(&book.Title, &book.Author); err != nil {
			return nil, fmt.Errorf("failed to scan library title: %w", err)
		}
		owned = append(owned, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read library titles: %w", err)
	}
	return owned, nil
}

// GetPreferences returns the user's stated preference lists. A user with no
// stored preferences gets an empty Preferences, not an error.
func (db *DB) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.Preferences, error) {
	var prefs types.Preferences
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(genres, '{}'), COALESCE(themes, '{}'), COALESCE(authors, '{}')
		 FROM user_preferences WHERE user_id = $1`,
		userID,
	).Scan(&prefs.Genres, &prefs.Themes, &prefs.Authors)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &types.Preferences{}, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &prefs, nil
}
