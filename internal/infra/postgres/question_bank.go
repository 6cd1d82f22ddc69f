package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizha-server/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBankLoader loads question banks stored as JSONB in an external Postgres database.
//
//	CREATE TABLE question_banks (id TEXT PRIMARY KEY, data JSONB NOT NULL);
//
// data holds {"questions":[{"text":...,"options":[4 strings],"correct":"A"}]}.
type QuestionBankLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionBankLoader(pool *pgxpool.Pool) *QuestionBankLoader {
	return &QuestionBankLoader{pool: pool}
}

// Connect opens a pool for url and verifies it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect question bank: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping question bank: %w", err)
	}
	return pool, nil
}

func (l *QuestionBankLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("question bank %q: %w", bankID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load question bank: %w", err)
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal question bank: %w", err)
	}
	bank.ID = bankID
	return bank, nil
}

// BankIDs lists the available banks, ordered by id.
func (l *QuestionBankLoader) BankIDs(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT id FROM question_banks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list question banks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question bank id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
