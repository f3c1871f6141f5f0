package models

import "time"

// FinalExamResult is a raw row of the final exam results table. Term and
// exam type columns hold the integer codes used by the registry.
type FinalExamResult struct {
	StudentID       string
	OfferedModuleID int64
	ExaminationID   int64
	ModuleCode      *string
	ModuleName      *string
	ModuleGroup     *string
	PersonName      *string
	LetterGrade     *string
	GradePoint      *float64
	ExamTerm        *int64
	ExamYear        *int64
	ExamType        *int64
	BatchName       *int64
	SectionName     *string
	TraTerm         *int64
	TraYear         *int64
	RegStatus       *string
	EmrDate         *time.Time
	CheckGradePoint *float64
	CreditHour      *float64
	RealGradePoint  *float64
	FacultyID       *int64
	ModuleType      *string
}

// FormattedResult is the display form returned by the results endpoint.
type FormattedResult struct {
	OfferedModuleID int64      `json:"offered_module_id"`
	ModuleCode      *string    `json:"module_code"`
	ModuleName      *string    `json:"mod_name"`
	ModuleGroup     *string    `json:"mod_group"`
	PersonName      *string    `json:"per_name"`
	LetterGrade     *string    `json:"letter_grade"`
	GradePoint      *float64   `json:"grade_point"`
	ExamTerm        string     `json:"exm_exam_term"`
	ExamYear        *int64     `json:"exm_exam_year"`
	ExamType        *string    `json:"exm_type"`
	BatchName       *string    `json:"batch_name"`
	SectionName     *string    `json:"section_name"`
	TraTerm         string     `json:"tra_term"`
	TraYear         *int64     `json:"tra_year"`
	RegStatus       *string    `json:"reg_status"`
	EmrDate         *time.Time `json:"emr_date"`
	CheckGradePoint *float64   `json:"check_grade_point"`
	CreditHour      *float64   `json:"mod_credit_hour"`
	RealGradePoint  *float64   `json:"real_gradepoint"`
	FacultyID       *int64     `json:"faculty_id"`
	ModuleType      *string    `json:"mod_type"`
}
