package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"learnloop-attempt-service/internal/app"
	"learnloop-attempt-service/internal/domain"
)

func TestAttemptStoreSetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewAttemptStore(client, time.Minute)

	session := app.NewAttemptSession()
	id, err := session.Start(domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{Type: domain.SingleChoice, Options: []string{"a", "b"}, CorrectIndices: []int{0}},
		},
	}, "u1", nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	store.Add(session)
	if !mr.Exists("attempt:live:" + id) {
		t.Fatalf("expected liveness key to be set")
	}
	if got, _ := store.Get(id); got != session {
		t.Fatalf("expected stored session back")
	}

	store.Remove(id)
	if mr.Exists("attempt:live:" + id) {
		t.Fatalf("expected liveness key to be removed")
	}
	if _, ok := store.Get(id); ok {
		t.Fatalf("expected session removed")
	}
}
