package repository

import (
	"context"
	"database/sql"

	"portal/internal/models"
)

type ResultRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.FinalExamResult, error)
}

type resultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.FinalExamResult, error) {
	query := `
		SELECT student_id, offered_module_id, examination_id, module_code, mod_name, mod_group, per_name,
			letter_grade, grade_point, exm_exam_term, exm_exam_year, exm_type, batch_name, section_name,
			tra_term, tra_year, reg_status, emr_date, check_grade_point, mod_credit_hour, real_gradepoint,
			faculty_id, mod_type
		FROM final_exam_results
		WHERE student_id = $1
		ORDER BY exm_exam_year, exm_exam_term, module_code
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FinalExamResult
	for rows.Next() {
		var v models.FinalExamResult
		if err := rows.Scan(
			&v.StudentID, &v.OfferedModuleID, &v.ExaminationID, &v.ModuleCode, &v.ModuleName, &v.ModuleGroup, &v.PersonName,
			&v.LetterGrade, &v.GradePoint, &v.ExamTerm, &v.ExamYear, &v.ExamType, &v.BatchName, &v.SectionName,
			&v.TraTerm, &v.TraYear, &v.RegStatus, &v.EmrDate, &v.CheckGradePoint, &v.CreditHour, &v.RealGradePoint,
			&v.FacultyID, &v.ModuleType,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
