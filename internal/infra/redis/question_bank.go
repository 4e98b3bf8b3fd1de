package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizdeck/internal/domain"
)

// QuestionSource fetches a quiz's question set from a backing store.
type QuestionSource interface {
	QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
}

// QuestionBank caches each quiz's full question set in Redis as a JSON
// value and falls back to the source on a miss. The full set (not just
// answers and marks) is cached because result review needs question text
// and options too.
//
// Keyed as: SET quiz:{quizID}:questions {json} EX {ttl}
type QuestionBank struct {
	client *redis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, source QuestionSource, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	key := b.key(quizID)

	if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err == nil {
			return questions, nil
		}
		// Corrupt entry; fall through to reload and overwrite it.
	}

	result, err, _ := b.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(raw, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := b.source.QuestionsByQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(questions); err == nil {
			// Cache write is best-effort; scoring proceeds either way.
			_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set for a quiz after a question mutation.
func (b *QuestionBank) Invalidate(ctx context.Context, quizID string) {
	_ = b.client.Del(ctx, b.key(quizID)).Err()
}

func (b *QuestionBank) key(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
