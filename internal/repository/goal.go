package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/docstore"
	"github.com/templui/goalplanner/internal/model"
)

const DefaultCollection = "goals"

var ErrInvalidGoalID = errors.New("goal id must be between 1 and 2^53-1")

type GoalRepository interface {
	Save(ctx context.Context, goal *model.Goal) (*model.Goal, error)
	ByID(ctx context.Context, id int64) (*model.Goal, bool, error)
	ByTitle(ctx context.Context, title string) (*model.Goal, bool, error)
	All(ctx context.Context) ([]*model.Goal, error)
	Delete(ctx context.Context, id int64) error
	SetSubgoalCompleted(ctx context.Context, id int64, subgoalTitle string, completed bool) (*model.Goal, bool, error)
}

var _ GoalRepository = (*GoalStore)(nil)

// GoalStore persists goals as whole documents in a docstore collection.
type GoalStore struct {
	store      docstore.Store
	collection string
	newID      func() int64
	now        func() time.Time
	locks      *keyedMutex
}

type Option func(*GoalStore)

// WithIDGenerator replaces the id minting strategy. A generator returning a
// value outside [1, MaxID] falls through to the built-in strategies.
func WithIDGenerator(fn func() int64) Option {
	return func(s *GoalStore) {
		s.newID = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *GoalStore) {
		s.now = now
	}
}

func NewGoalStore(store docstore.Store, collection string, opts ...Option) *GoalStore {
	if collection == "" {
		collection = DefaultCollection
	}
	s := &GoalStore{
		store:      store,
		collection: collection,
		now:        time.Now,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the whole goal in one document write. A goal without an id
// gets a freshly minted one; every subgoal's GoalID is set to the goal id.
func (s *GoalStore) Save(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	if goal == nil {
		return nil, apperr.New(apperr.ErrInvalidInput, "goal is required")
	}
	if goal.ID < 0 || goal.ID > MaxID {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, ErrInvalidGoalID, "invalid goal id")
	}

	if goal.HasID() {
		unlock := s.locks.Lock(goal.ID)
		defer unlock()
	}
	return s.put(ctx, goal)
}

func (s *GoalStore) put(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	g := goal.Clone()
	g.DraftID = ""
	now := s.now().UTC()

	if !g.HasID() {
		g.AssignID(s.mintID(ctx))
		g.CreatedAt = now
	} else {
		g.AssignID(g.ID)
		if g.CreatedAt.IsZero() {
			g.CreatedAt = s.existingCreatedAt(ctx, g.ID, now)
		}
	}
	g.UpdatedAt = now

	err := s.store.Set(ctx, s.collection, docKey(g.ID), toDocument(g))
	if err != nil {
		slog.Error("failed to save goal", "error", err, "goal_id", g.ID)
		return nil, apperr.Wrap(apperr.ErrPersistence, err, "failed to save goal")
	}

	slog.Debug("goal saved", "goal_id", g.ID, "subgoals", len(g.Subgoals))
	return g, nil
}

func (s *GoalStore) existingCreatedAt(ctx context.Context, id int64, fallback time.Time) time.Time {
	doc, ok, err := s.store.Get(ctx, s.collection, docKey(id))
	if err != nil || !ok {
		return fallback
	}
	if t, ok := coerceTime(doc["createdAt"]); ok {
		return t
	}
	return fallback
}

// mintID tries the configured generator, then a random UUID, then a hash of a
// store-generated key, then the clock.
func (s *GoalStore) mintID(ctx context.Context) int64 {
	if s.newID != nil {
		if id := s.newID(); id > 0 && id <= MaxID {
			return id
		}
	}

	if u, err := uuid.NewRandom(); err == nil {
		if id := int64(binary.BigEndian.Uint64(u[:8]) & uint64(MaxID)); id > 0 {
			return id
		}
	}

	if key := s.store.NewKey(ctx, s.collection); key != "" {
		return hashID(key)
	}

	if id := s.now().UnixNano() & MaxID; id > 0 {
		return id
	}
	return 1
}

// ByID returns ok == false when no goal has the id.
func (s *GoalStore) ByID(ctx context.Context, id int64) (*model.Goal, bool, error) {
	if id <= 0 || id > MaxID {
		return nil, false, nil
	}

	doc, ok, err := s.store.Get(ctx, s.collection, docKey(id))
	if err != nil {
		slog.Error("failed to load goal", "error", err, "goal_id", id)
		return nil, false, apperr.Wrap(apperr.ErrPersistence, err, "failed to load goal")
	}
	if !ok {
		return nil, false, nil
	}

	goal, err := fromDocument(docKey(id), doc)
	if err != nil {
		slog.Error("stored goal is unreadable", "error", err, "goal_id", id)
		return nil, false, apperr.Wrap(apperr.ErrPersistence, err, "stored goal is unreadable")
	}
	if goal.ID != id {
		slog.Warn("stored goal id disagrees with its key", "goal_id", id, "stored_id", doc["id"])
		goal.AssignID(id)
	}
	return goal, true, nil
}

// ByTitle returns the first goal, in store order, whose title matches exactly.
func (s *GoalStore) ByTitle(ctx context.Context, title string) (*model.Goal, bool, error) {
	snaps, err := s.store.WhereEqual(ctx, s.collection, "title", title)
	if err != nil {
		slog.Error("failed to query goals by title", "error", err, "title", title)
		return nil, false, apperr.Wrap(apperr.ErrPersistence, err, "failed to query goals")
	}

	goals := s.decodeAll(snaps)
	if len(goals) == 0 {
		return nil, false, nil
	}
	if len(goals) > 1 {
		slog.Warn("multiple goals share a title, using the first",
			"title", title,
			"count", len(goals),
			"goal_id", goals[0].ID,
		)
	}
	return goals[0], true, nil
}

// All returns every readable goal. Unreadable documents are logged and skipped.
func (s *GoalStore) All(ctx context.Context) ([]*model.Goal, error) {
	snaps, err := s.store.List(ctx, s.collection)
	if err != nil {
		slog.Error("failed to list goals", "error", err)
		return nil, apperr.Wrap(apperr.ErrPersistence, err, "failed to list goals")
	}
	return s.decodeAll(snaps), nil
}

func (s *GoalStore) decodeAll(snaps []docstore.Snapshot) []*model.Goal {
	goals := make([]*model.Goal, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Err != nil {
			slog.Warn("skipping unreadable goal document", "error", snap.Err, "doc_id", snap.ID)
			continue
		}
		goal, err := fromDocument(snap.ID, snap.Data)
		if err != nil {
			slog.Warn("skipping unreadable goal document", "error", err, "doc_id", snap.ID)
			continue
		}
		goals = append(goals, goal)
	}
	return goals
}

// Delete removes the goal. Deleting a missing goal is not an error.
func (s *GoalStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 || id > MaxID {
		return nil
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.store.Delete(ctx, s.collection, docKey(id))
	if err != nil {
		slog.Error("failed to delete goal", "error", err, "goal_id", id)
		return apperr.Wrap(apperr.ErrPersistence, err, "failed to delete goal")
	}
	return nil
}

// SetSubgoalCompleted flips the completed flag of the first subgoal titled
// subgoalTitle and writes the whole goal back. ok is false when the goal or
// the subgoal does not exist. Concurrent calls for the same goal are
// serialized within this process only.
func (s *GoalStore) SetSubgoalCompleted(ctx context.Context, id int64, subgoalTitle string, completed bool) (*model.Goal, bool, error) {
	if id <= 0 || id > MaxID {
		return nil, false, nil
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	goal, ok, err := s.ByID(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}

	sub := goal.FindSubgoal(subgoalTitle)
	if sub == nil {
		slog.Debug("subgoal not found", "goal_id", id, "subgoal", subgoalTitle)
		return nil, false, nil
	}
	sub.Completed = completed

	saved, err := s.put(ctx, goal)
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

func docKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toDocument(g *model.Goal) docstore.Document {
	subgoals := make([]any, 0, len(g.Subgoals))
	for _, sub := range g.Subgoals {
		subgoals = append(subgoals, map[string]any{
			"goalId":      sub.GoalID,
			"title":       sub.Title,
			"description": sub.Description,
			"completed":   sub.Completed,
		})
	}

	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.String()
	}

	return docstore.Document{
		"id":          g.ID,
		"title":       g.Title,
		"description": g.Description,
		"deadline":    deadline,
		"subgoals":    subgoals,
		"createdAt":   g.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":   g.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// fromDocument builds a goal field by field, coercing each value. Missing
// text fields get defaults; only a nil document is rejected.
func fromDocument(key string, doc docstore.Document) (*model.Goal, error) {
	if doc == nil {
		return nil, fmt.Errorf("document %s is empty", key)
	}

	g := &model.Goal{
		ID:          documentID(key, doc["id"]),
		Title:       stringOr(doc["title"], model.UntitledGoal),
		Description: stringOr(doc["description"], model.DefaultDescription),
	}
	if d, ok := coerceDate(doc["deadline"]); ok {
		g.Deadline = d
	}
	if t, ok := coerceTime(doc["createdAt"]); ok {
		g.CreatedAt = t
	}
	if t, ok := coerceTime(doc["updatedAt"]); ok {
		g.UpdatedAt = t
	}

	list, _ := coerceList(doc["subgoals"])
	g.Subgoals = make([]model.Subgoal, 0, len(list))
	for _, item := range list {
		m, ok := coerceMap(item)
		if !ok {
			continue
		}
		sub := model.Subgoal{
			GoalID:      g.ID,
			Title:       stringOr(m["title"], model.UntitledSubgoal),
			Description: stringOr(m["description"], model.DefaultDescription),
		}
		if completed, ok := coerceBool(m["completed"]); ok {
			sub.Completed = completed
		}
		g.Subgoals = append(g.Subgoals, sub)
	}

	return g, nil
}

// documentID prefers the document key, which is what every write addresses.
// The stored id field is used only when the key is not a valid id.
func documentID(key string, stored any) int64 {
	if n, err := strconv.ParseInt(key, 10, 64); err == nil && n > 0 && n <= MaxID {
		return n
	}
	if stored == nil {
		return hashID(key)
	}
	return coerceID(stored)
}

func stringOr(v any, def string) string {
	if s, ok := coerceString(v); ok && s != "" {
		return s
	}
	return def
}
