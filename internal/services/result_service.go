package services

import (
	"context"
	"errors"
	"strconv"

	"portal/internal/models"
	"portal/internal/repository"
)

var ErrNoResults = errors.New("no results found")

// Term is the academic term code used by the registry.
type Term int64

const (
	TermSpring Term = 1
	TermSummer Term = 2
	TermAutumn Term = 3
)

var termNames = map[Term]string{
	TermSpring: "Spring",
	TermSummer: "Summer",
	TermAutumn: "Autumn",
}

func (t Term) String() string {
	if name, ok := termNames[t]; ok {
		return name
	}
	return "Not Specified"
}

// ExamType is the examination kind code used by the registry.
type ExamType int64

const (
	ExamFinal         ExamType = 1
	ExamSupple        ExamType = 2
	ExamSpecialSupple ExamType = 3
)

var examTypeNames = map[ExamType]string{
	ExamFinal:         "final",
	ExamSupple:        "supple",
	ExamSpecialSupple: "special supple",
}

// Name returns the display name and false for unknown codes.
func (e ExamType) Name() (string, bool) {
	name, ok := examTypeNames[e]
	return name, ok
}

var ordinalEnds = [10]string{"th", "st", "nd", "rd", "th", "th", "th", "th", "th", "th"}

// OrdinalSuffix returns the English ordinal suffix for n: 1st, 12th, 23rd.
func OrdinalSuffix(n int64) string {
	if n < 0 {
		n = -n
	}
	if m := n % 100; m >= 11 && m <= 13 {
		return "th"
	}
	return ordinalEnds[n%10]
}

type ResultService struct {
	results repository.ResultRepository
}

func NewResultService(results repository.ResultRepository) *ResultService {
	return &ResultService{results: results}
}

func (s *ResultService) StudentResults(ctx context.Context, studentID string) ([]models.FormattedResult, error) {
	rows, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}

	out := make([]models.FormattedResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, FormatResult(r))
	}
	return out, nil
}

func FormatResult(r models.FinalExamResult) models.FormattedResult {
	f := models.FormattedResult{
		OfferedModuleID: r.OfferedModuleID,
		ModuleCode:      r.ModuleCode,
		ModuleName:      r.ModuleName,
		ModuleGroup:     r.ModuleGroup,
		PersonName:      r.PersonName,
		LetterGrade:     r.LetterGrade,
		GradePoint:      r.GradePoint,
		ExamTerm:        termOf(r.ExamTerm).String(),
		ExamYear:        r.ExamYear,
		SectionName:     r.SectionName,
		TraTerm:         termOf(r.TraTerm).String(),
		TraYear:         r.TraYear,
		RegStatus:       r.RegStatus,
		EmrDate:         r.EmrDate,
		CheckGradePoint: r.CheckGradePoint,
		CreditHour:      r.CreditHour,
		RealGradePoint:  r.RealGradePoint,
		FacultyID:       r.FacultyID,
		ModuleType:      r.ModuleType,
	}
	if r.ExamType != nil {
		if name, ok := ExamType(*r.ExamType).Name(); ok {
			f.ExamType = &name
		}
	}
	if r.BatchName != nil {
		batch := strconv.FormatInt(*r.BatchName, 10) + OrdinalSuffix(*r.BatchName)
		f.BatchName = &batch
	}
	return f
}

func termOf(code *int64) Term {
	if code == nil {
		return 0
	}
	return Term(*code)
}
