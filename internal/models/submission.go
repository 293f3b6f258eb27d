package models

import "time"

// SubmissionStatus represents the submission lifecycle. The transition
// DRAFT -> SUBMITTED is one-way.
type SubmissionStatus string

const (
	SubmissionStatusDraft     SubmissionStatus = "DRAFT"
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
)

// Grade bounds, inclusive. The French 20-point scale.
const (
	GradeMin = 1
	GradeMax = 20
)

// Submission is a student project work item within a classroom.
type Submission struct {
	ID            string           `db:"id" json:"id"`
	ClassroomID   string           `db:"classroom_id" json:"classroom_id"`
	Title         string           `db:"title" json:"title"`
	Description   string           `db:"description" json:"description"`
	RepositoryURL string           `db:"repository_url" json:"repository_url"`
	DeployedURL   *string          `db:"deployed_url" json:"deployed_url,omitempty"`
	Status        SubmissionStatus `db:"status" json:"status"`
	Grade         *int             `db:"grade" json:"grade,omitempty"`
	TeacherNotes  *string          `db:"teacher_notes" json:"teacher_notes,omitempty"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
	SubmittedAt   *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
}

// IsEditable reports whether the record still accepts student edits.
func (s *Submission) IsEditable() bool {
	return s != nil && s.Status == SubmissionStatusDraft
}

// IsGraded reports whether a grade has been assigned.
func (s *Submission) IsGraded() bool {
	return s != nil && s.Grade != nil
}

// SubmissionDetail enriches Submission with context and collaborators.
type SubmissionDetail struct {
	Submission
	ClassroomTitle string     `db:"classroom_title" json:"classroom_title"`
	TeacherID      string     `db:"classroom_teacher_id" json:"classroom_teacher_id"`
	CreatorName    string     `db:"creator_name" json:"creator_name"`
	CreatorEmail   string     `db:"creator_email" json:"creator_email"`
	Collaborators  []UserInfo `json:"collaborators"`
}

// Participants returns the creator plus collaborators without duplicates.
func (d *SubmissionDetail) Participants() []UserInfo {
	seen := map[string]struct{}{d.CreatedBy: {}}
	out := []UserInfo{{ID: d.CreatedBy, FullName: d.CreatorName, Email: d.CreatorEmail, Role: RoleStudent}}
	for _, c := range d.Collaborators {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// IsCollaborator reports whether the user id is listed as collaborator.
func (d *SubmissionDetail) IsCollaborator(userID string) bool {
	for _, c := range d.Collaborators {
		if c.ID == userID {
			return true
		}
	}
	return false
}

// CreateSubmissionRequest holds the payload for creating a draft.
type CreateSubmissionRequest struct {
	ClassroomID     string   `json:"classroom_id" validate:"required,uuid4"`
	Title           string   `json:"title" validate:"required,min=3,max=200"`
	Description     string   `json:"description" validate:"max=5000"`
	RepositoryURL   string   `json:"repository_url" validate:"required,url"`
	DeployedURL     *string  `json:"deployed_url,omitempty" validate:"omitempty,url"`
	CollaboratorIDs []string `json:"collaborator_ids" validate:"dive,uuid4"`
}

// UpdateSubmissionRequest holds the student-editable draft fields. Nil
// fields are left untouched; a non-nil CollaboratorIDs replaces the set.
type UpdateSubmissionRequest struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	RepositoryURL   *string   `json:"repository_url,omitempty" validate:"omitempty,url"`
	DeployedURL     *string   `json:"deployed_url,omitempty" validate:"omitempty,url"`
	CollaboratorIDs *[]string `json:"collaborator_ids,omitempty" validate:"omitempty,dive,uuid4"`
}

// GradeSubmissionRequest holds the teacher's grading payload.
type GradeSubmissionRequest struct {
	Grade        int    `json:"grade" validate:"required,min=1,max=20"`
	TeacherNotes string `json:"teacher_notes" validate:"max=5000"`
}

// SubmissionFilter provides filters for listing submissions.
type SubmissionFilter struct {
	ClassroomID string
	Status      SubmissionStatus
	GradedOnly  bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// GradeLetter converts a 20-point grade to the letter scale.
func GradeLetter(grade *int) string {
	if grade == nil {
		return "N/A"
	}
	switch g := *grade; {
	case g >= 16:
		return "A"
	case g >= 14:
		return "B"
	case g >= 12:
		return "C"
	case g >= 10:
		return "D"
	default:
		return "F"
	}
}
