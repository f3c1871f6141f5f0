package models

type CourseEnrollment struct {
	ModuleRegistrationID int64    `json:"module_registration_id"`
	StudentID            string   `json:"student_id"`
	BatchName            *int64   `json:"batch_name"`
	SectionName          *string  `json:"section_name"`
	TraTerm              *int64   `json:"tra_term"`
	TraYear              *int64   `json:"tra_year"`
	ModuleCode           *string  `json:"module_code"`
	ModuleName           *string  `json:"mod_name"`
	CreditHour           *float64 `json:"mod_credit_hour"`
	LabIncluded          *bool    `json:"mod_lab_included"`
	Major                *string  `json:"mod_major"`
	Group                *string  `json:"mod_group"`
	FacultyName          *string  `json:"faculty_name"`
	FacultyDesignation   *string  `json:"fac_designation"`
	DepartmentCode       *string  `json:"dpt_code"`
	RegStatus            *string  `json:"reg_status"`
	RegType              *int64   `json:"reg_type"`
}
