package models

// TeacherDashboard summarises a teacher's classrooms.
type TeacherDashboard struct {
	ClassroomCount  int `db:"classroom_count" json:"classroom_count"`
	StudentCount    int `db:"student_count" json:"student_count"`
	SubmittedCount  int `db:"submitted_count" json:"submitted_count"`
	GradedCount     int `db:"graded_count" json:"graded_count"`
	AwaitingGrading int `json:"awaiting_grading"`
}

// StudentDashboard summarises a student's enrollments and work.
type StudentDashboard struct {
	MembershipCount int `db:"membership_count" json:"membership_count"`
	DraftCount      int `db:"draft_count" json:"draft_count"`
	SubmittedCount  int `db:"submitted_count" json:"submitted_count"`
	GradedCount     int `db:"graded_count" json:"graded_count"`
}

// GradeStatistics describes the grade distribution of a classroom.
type GradeStatistics struct {
	Count        int      `json:"count"`
	Average      *float64 `json:"average,omitempty"`
	Min          *int     `json:"min,omitempty"`
	Max          *int     `json:"max,omitempty"`
	Median       *float64 `json:"median,omitempty"`
	PassingCount int      `json:"passing_count"`
	PassingRate  float64  `json:"passing_rate"`
}
