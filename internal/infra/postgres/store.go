package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizdeck/internal/domain"
)

// Store implements the quiz directory, question bank, catalog writes, and
// result store on Postgres. It owns the pool: the rest of the system only
// sees the app-layer interfaces, never a raw handle.
type Store struct {
	url string

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// Connect establishes the pool. Call Close at shutdown and optionally run
// Supervise in a goroutine to reconnect after outages.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{url: url, pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// Supervise pings the pool on the given interval and re-establishes it
// with exponential backoff after a failed ping. Blocks until ctx is done.
func (s *Store) Supervise(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pool := s.getPool()
		if pool == nil {
			// Store was closed; the supervisor has nothing left to watch.
			return
		}
		if err := pool.Ping(ctx); err == nil {
			continue
		}

		log.Printf("postgres ping failed, reconnecting")
		backoff := time.Second
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			pool, err := pgxpool.Connect(ctx, s.url)
			if err == nil {
				s.mu.Lock()
				old := s.pool
				s.pool = pool
				s.mu.Unlock()
				if old != nil {
					old.Close()
				}
				log.Printf("postgres reconnected")
				break
			}
			log.Printf("postgres reconnect failed: %v", err)
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}
}

func (s *Store) getPool() *pgxpool.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.getPool().QueryRow(ctx,
		`SELECT id, title, description, category, time_limit, status, created_by, created_at, updated_at
		 FROM quizzes WHERE id=$1`, id).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Category, &quiz.TimeLimit,
			&quiz.Status, &quiz.CreatedBy, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.getPool().Exec(ctx,
		`INSERT INTO quizzes (id, title, description, category, time_limit, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.Category, quiz.TimeLimit,
		quiz.Status, quiz.CreatedBy, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	tag, err := s.getPool().Exec(ctx,
		`UPDATE quizzes SET title=$2, description=$3, category=$4, time_limit=$5, status=$6, updated_at=$7
		 WHERE id=$1`,
		quiz.ID, quiz.Title, quiz.Description, quiz.Category, quiz.TimeLimit, quiz.Status, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	tag, err := s.getPool().Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, onlyPublished bool) ([]domain.Quiz, error) {
	query := `SELECT id, title, description, category, time_limit, status, created_by, created_at, updated_at
		 FROM quizzes ORDER BY created_at DESC`
	args := []interface{}{}
	if onlyPublished {
		query = `SELECT id, title, description, category, time_limit, status, created_by, created_at, updated_at
		 FROM quizzes WHERE status=$1 ORDER BY created_at DESC`
		args = append(args, domain.StatusPublished)
	}

	rows, err := s.getPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Category, &quiz.TimeLimit,
			&quiz.Status, &quiz.CreatedBy, &quiz.CreatedAt, &quiz.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *Store) QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.getPool().Query(ctx,
		`SELECT id, quiz_id, question_text, options, correct_answer, marks, created_at, updated_at
		 FROM questions WHERE quiz_id=$1 ORDER BY created_at, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = s.getPool().Exec(ctx,
		`INSERT INTO questions (id, quiz_id, question_text, options, correct_answer, marks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		question.ID, question.QuizID, question.QuestionText, options,
		question.CorrectAnswer, question.Marks, question.CreatedAt, question.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := s.getPool().QueryRow(ctx,
		`SELECT id, quiz_id, question_text, options, correct_answer, marks, created_at, updated_at
		 FROM questions WHERE id=$1`, id)
	question, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	tag, err := s.getPool().Exec(ctx,
		`UPDATE questions SET question_text=$2, options=$3, correct_answer=$4, marks=$5, updated_at=$6
		 WHERE id=$1`,
		question.ID, question.QuestionText, options, question.CorrectAnswer, question.Marks, question.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	tag, err := s.getPool().Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) CreateResult(ctx context.Context, result domain.Result) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	// Single INSERT: the result row is either fully stored or not at all.
	_, err = s.getPool().Exec(ctx,
		`INSERT INTO results (id, user_id, quiz_id, answers, score, total_marks, completed_at, time_taken, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID, result.UserID, result.QuizID, answers, result.Score, result.TotalMarks,
		result.CompletedAt, result.TimeTaken, result.CreatedAt, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

func (s *Store) ResultsByUser(ctx context.Context, userID string) ([]domain.ResultSummary, error) {
	rows, err := s.getPool().Query(ctx,
		`SELECT r.id, r.user_id, r.quiz_id, r.answers, r.score, r.total_marks, r.completed_at,
		        r.time_taken, r.created_at, r.updated_at, COALESCE(q.title, '')
		 FROM results r LEFT JOIN quizzes q ON q.id = r.quiz_id
		 WHERE r.user_id=$1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.ResultSummary, 0)
	for rows.Next() {
		var summary domain.ResultSummary
		var answers []byte
		if err := rows.Scan(&summary.ID, &summary.UserID, &summary.QuizID, &answers,
			&summary.Score, &summary.TotalMarks, &summary.CompletedAt,
			&summary.TimeTaken, &summary.CreatedAt, &summary.UpdatedAt, &summary.QuizTitle); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(answers, &summary.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return summaries, nil
}

func (s *Store) ResultByID(ctx context.Context, id string) (domain.Result, error) {
	var result domain.Result
	var answers []byte
	err := s.getPool().QueryRow(ctx,
		`SELECT id, user_id, quiz_id, answers, score, total_marks, completed_at, time_taken, created_at, updated_at
		 FROM results WHERE id=$1`, id).
		Scan(&result.ID, &result.UserID, &result.QuizID, &answers, &result.Score,
			&result.TotalMarks, &result.CompletedAt, &result.TimeTaken, &result.CreatedAt, &result.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result: %w", err)
	}
	if err := json.Unmarshal(answers, &result.Answers); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return result, nil
}

func (s *Store) DeleteResult(ctx context.Context, id string) error {
	tag, err := s.getPool().Exec(ctx, `DELETE FROM results WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var question domain.Question
	var options []byte
	err := row.Scan(&question.ID, &question.QuizID, &question.QuestionText, &options,
		&question.CorrectAnswer, &question.Marks, &question.CreatedAt, &question.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, err
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(options, &question.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return question, nil
}
