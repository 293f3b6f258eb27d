package models

import "time"

// Membership links a student to a classroom. The (classroom, student) pair
// is unique at the storage layer.
type Membership struct {
	ID          string    `db:"id" json:"id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// MembershipDetail enriches Membership with student and classroom info.
type MembershipDetail struct {
	Membership
	StudentName    string `db:"student_name" json:"student_name"`
	StudentEmail   string `db:"student_email" json:"student_email"`
	ClassroomTitle string `db:"classroom_title" json:"classroom_title"`
}
