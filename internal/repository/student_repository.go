package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"portal/internal/models"
)

var ErrStudentNotFound = errors.New("student not found")

type StudentRepository interface {
	List(ctx context.Context, limit int, offset int) ([]models.StudentRecord, error)
	GetByID(ctx context.Context, studentID string) (*models.StudentRecord, error)
}

type studentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) StudentRepository {
	return &studentRepository{db: db}
}

const selectStudentColumns = `
		SELECT student_id, person_id, per_name, per_gender, per_date_of_birth, per_blood_group,
			per_fathers_name, per_mothers_name, per_present_address, per_permanent_address,
			per_mobile, stu_guardians_mobile, per_nationality, per_title,
			stu_academic_term, stu_academic_year, pro_name, pro_short_name, programme_code,
			batch_name, section_name, adm_date
		FROM student_records
	`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.StudentRecord, error) {
	var s models.StudentRecord
	err := row.Scan(
		&s.StudentID, &s.PersonID, &s.Name, &s.Gender, &s.DateOfBirth, &s.BloodGroup,
		&s.FathersName, &s.MothersName, &s.PresentAddress, &s.PermanentAddress,
		&s.Mobile, &s.GuardiansMobile, &s.Nationality, &s.Title,
		&s.AcademicTerm, &s.AcademicYear, &s.ProgrammeName, &s.ProgrammeShortName, &s.ProgrammeCode,
		&s.BatchName, &s.SectionName, &s.AdmissionDate,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepository) List(ctx context.Context, limit int, offset int) ([]models.StudentRecord, error) {
	query := selectStudentColumns + ` ORDER BY student_id`

	args := make([]any, 0, 2)
	argPos := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, limit)
		argPos++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []models.StudentRecord{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

func (r *studentRepository) GetByID(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, selectStudentColumns+` WHERE student_id = $1`, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s, nil
}
