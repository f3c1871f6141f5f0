package models

import "time"

type StudentRecord struct {
	StudentID          string     `json:"student_id"`
	PersonID           *int64     `json:"person_id"`
	Name               *string    `json:"per_name"`
	Gender             *string    `json:"per_gender"`
	DateOfBirth        *time.Time `json:"per_date_of_birth"`
	BloodGroup         *string    `json:"per_blood_group"`
	FathersName        *string    `json:"per_fathers_name"`
	MothersName        *string    `json:"per_mothers_name"`
	PresentAddress     *string    `json:"per_present_address"`
	PermanentAddress   *string    `json:"per_permanent_address"`
	Mobile             *string    `json:"per_mobile"`
	GuardiansMobile    *string    `json:"stu_guardians_mobile"`
	Nationality        *string    `json:"per_nationality"`
	Title              *string    `json:"per_title"`
	AcademicTerm       *int64     `json:"stu_academic_term"`
	AcademicYear       *int64     `json:"stu_academic_year"`
	ProgrammeName      *string    `json:"pro_name"`
	ProgrammeShortName *string    `json:"pro_short_name"`
	ProgrammeCode      *string    `json:"programme_code"`
	BatchName          *int64     `json:"batch_name"`
	SectionName        *string    `json:"section_name"`
	AdmissionDate      *time.Time `json:"adm_date"`
}
