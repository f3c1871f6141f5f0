package repository

import (
	"context"
	"database/sql"

	"portal/internal/models"
)

type CourseEnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseEnrollment, error)
}

type courseEnrollmentRepository struct {
	db *sql.DB
}

func NewCourseEnrollmentRepository(db *sql.DB) CourseEnrollmentRepository {
	return &courseEnrollmentRepository{db: db}
}

func (r *courseEnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseEnrollment, error) {
	query := `
		SELECT module_registration_id, student_id, batch_name, section_name, tra_term, tra_year,
			module_code, mod_name, mod_credit_hour, mod_lab_included, mod_major, mod_group,
			faculty_name, fac_designation, dpt_code, reg_status, reg_type
		FROM course_enrollments
		WHERE student_id = $1
		ORDER BY tra_year ASC, tra_term ASC
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CourseEnrollment
	for rows.Next() {
		var e models.CourseEnrollment
		if err := rows.Scan(
			&e.ModuleRegistrationID, &e.StudentID, &e.BatchName, &e.SectionName, &e.TraTerm, &e.TraYear,
			&e.ModuleCode, &e.ModuleName, &e.CreditHour, &e.LabIncluded, &e.Major, &e.Group,
			&e.FacultyName, &e.FacultyDesignation, &e.DepartmentCode, &e.RegStatus, &e.RegType,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
