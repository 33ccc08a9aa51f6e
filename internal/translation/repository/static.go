package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Deehands24/laymen-terms/internal/translation"
	"github.com/Deehands24/laymen-terms/internal/user"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type StaticRepository struct {
	mu          sync.RWMutex
	users       UserLookup
	submissions []translation.Submission
	terms       []translation.LaymenTerm
	now         func() time.Time
}

// NewStaticRepository is seeded with three explained submissions for user 1.
func NewStaticRepository(users UserLookup) *StaticRepository {
	r := &StaticRepository{users: users, now: time.Now}

	seed := []struct {
		text, explanation string
		at                time.Time
	}{
		{
			"The patient presents with hypertension and hyperlipidemia requiring medication adjustment.",
			"The patient has high blood pressure and high cholesterol levels that need changes to their medication.",
			time.Date(2023, 5, 14, 10, 30, 0, 0, time.UTC),
		},
		{
			"MRI shows mild degenerative changes in the lumbar spine with no significant stenosis.",
			"The MRI scan shows minor age-related wear in the lower back without any serious narrowing of the spinal canal.",
			time.Date(2023, 5, 12, 14, 45, 0, 0, time.UTC),
		},
		{
			"Patient diagnosed with acute rhinosinusitis and prescribed amoxicillin for 10 days.",
			"The patient has a sinus infection and was given the antibiotic amoxicillin to take for 10 days.",
			time.Date(2023, 5, 10, 9, 15, 0, 0, time.UTC),
		},
	}
	for i, s := range seed {
		id := int64(i + 1)
		r.submissions = append(r.submissions, translation.Submission{ID: id, UserID: 1, SubmittedText: s.text, SubmittedAt: s.at})
		r.terms = append(r.terms, translation.LaymenTerm{ID: id, SubmissionID: id, Explanation: s.explanation, ReturnedAt: s.at.Add(time.Minute)})
	}
	return r
}

func (r *StaticRepository) SaveSubmission(_ context.Context, userID int64, text string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := int64(len(r.submissions) + 1)
	r.submissions = append(r.submissions, translation.Submission{ID: id, UserID: userID, SubmittedText: text, SubmittedAt: r.now()})
	return id, nil
}

func (r *StaticRepository) SaveLaymenTerm(_ context.Context, submissionID int64, explanation string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := int64(len(r.terms) + 1)
	r.terms = append(r.terms, translation.LaymenTerm{ID: id, SubmissionID: submissionID, Explanation: explanation, ReturnedAt: r.now()})
	return id, nil
}

func (r *StaticRepository) History(ctx context.Context, userID int64) ([]translation.HistoryEntry, error) {
	username := ""
	if u, err := r.users.GetByID(ctx, userID); err == nil && u != nil {
		username = u.Username
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bySubmission := make(map[int64]translation.LaymenTerm, len(r.terms))
	for _, t := range r.terms {
		bySubmission[t.SubmissionID] = t
	}

	entries := []translation.HistoryEntry{}
	for _, s := range r.submissions {
		if s.UserID != userID {
			continue
		}
		t, ok := bySubmission[s.ID]
		if !ok {
			continue
		}
		entries = append(entries, translation.HistoryEntry{
			UserID:        s.UserID,
			Username:      username,
			SubmissionID:  s.ID,
			SubmittedText: s.SubmittedText,
			SubmittedAt:   s.SubmittedAt,
			LaymenTermID:  t.ID,
			Explanation:   t.Explanation,
			ReturnedAt:    t.ReturnedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmissionID > entries[j].SubmissionID
		}
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	return entries, nil
}

func (r *StaticRepository) CountSince(_ context.Context, userID int64, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.submissions {
		if s.UserID == userID && !s.SubmittedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
