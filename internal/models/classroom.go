package models

import "time"

// JoinCodeLength is the fixed length of classroom join codes.
const JoinCodeLength = 8

// JoinCodeAlphabet excludes ambiguous characters (0, O, 1, I, L) for
// readability.
const JoinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Classroom represents one project assignment owned by a teacher. The join
// code is generated at creation and never changes.
type Classroom struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	Subject         string    `db:"subject" json:"subject,omitempty"`
	RequirementsURL *string   `db:"requirements_url" json:"requirements_url,omitempty"`
	JoinCode        string    `db:"join_code" json:"join_code"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomDetail enriches Classroom with teacher info and counters.
type ClassroomDetail struct {
	Classroom
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	StudentCount   int    `db:"student_count" json:"student_count"`
	SubmittedCount int    `db:"submitted_count" json:"submitted_count"`
	GradedCount    int    `db:"graded_count" json:"graded_count"`
}

// CreateClassroomRequest holds the payload for creating a classroom.
type CreateClassroomRequest struct {
	Title           string  `json:"title" validate:"required,min=3,max=200"`
	Description     string  `json:"description" validate:"max=5000"`
	Subject         string  `json:"subject" validate:"max=100"`
	RequirementsURL *string `json:"requirements_url,omitempty" validate:"omitempty,url"`
}

// UpdateClassroomRequest holds the mutable classroom fields. Nil fields are
// left untouched. The join code cannot be changed.
type UpdateClassroomRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Subject         *string `json:"subject,omitempty" validate:"omitempty,max=100"`
	RequirementsURL *string `json:"requirements_url,omitempty" validate:"omitempty,url"`
	Active          *bool   `json:"active,omitempty"`
}

// JoinClassroomRequest carries the join code entered by a student.
type JoinClassroomRequest struct {
	JoinCode string `json:"join_code" validate:"required"`
}

// ClassroomFilter provides filters for listing classrooms.
type ClassroomFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
