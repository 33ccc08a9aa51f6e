package translation

import "time"

// Placeholder ids returned when a request only partially succeeded.
const NoID int64 = -1

type Submission struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	SubmittedText string    `json:"submittedText"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

type LaymenTerm struct {
	ID           int64     `json:"id"`
	SubmissionID int64     `json:"submissionId"`
	Explanation  string    `json:"explanation"`
	ReturnedAt   time.Time `json:"returnedAt"`
}

// HistoryEntry joins a submission with its explanation and author.
type HistoryEntry struct {
	UserID        int64     `json:"userId" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	SubmissionID  int64     `json:"submissionId" db:"submission_id"`
	SubmittedText string    `json:"submittedText" db:"submitted_text"`
	SubmittedAt   time.Time `json:"submittedAt" db:"submitted_at"`
	LaymenTermID  int64     `json:"laymenTermId" db:"laymen_term_id"`
	Explanation   string    `json:"explanation" db:"explanation"`
	ReturnedAt    time.Time `json:"returnedAt" db:"returned_at"`
}
