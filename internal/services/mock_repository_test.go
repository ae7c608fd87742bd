package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/examtaking-service/internal/models"
	"github.com/SAP-F-2025/examtaking-service/internal/repositories"
)

// MockRepository for testing - returns canned rows and captures writes.
// Missing rows surface as gorm.ErrRecordNotFound so the not-found mapping
// in the services behaves like it does against Postgres.
type MockRepository struct {
	exams          map[uint]*models.Exam
	papers         map[uint]*models.ExamPaper
	questions      map[uint]*models.Question
	paperQuestions map[uint][]*models.ExamPaperQuestion
	records        map[uint]*models.ExamRecord
	answers        []*models.ExamAnswer
	cheatLogs      []*models.ExamCheatLog

	scoreStats   *repositories.RecordScoreStats
	statusCounts *repositories.RecordStatusCounts

	updatedRecords []*models.ExamRecord
	scoreUpdates   []scoreUpdate
}

type scoreUpdate struct {
	answerID uint
	score    float64
	gradedBy *string
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		exams:          map[uint]*models.Exam{},
		papers:         map[uint]*models.ExamPaper{},
		questions:      map[uint]*models.Question{},
		paperQuestions: map[uint][]*models.ExamPaperQuestion{},
		records:        map[uint]*models.ExamRecord{},
	}
}

func (m *MockRepository) Exam() repositories.ExamRepository         { return &mockExamRepo{m} }
func (m *MockRepository) Paper() repositories.PaperRepository       { return &mockPaperRepo{m} }
func (m *MockRepository) Question() repositories.QuestionRepository { return &mockQuestionRepo{m} }
func (m *MockRepository) Record() repositories.RecordRepository     { return &mockRecordRepo{m} }
func (m *MockRepository) Answer() repositories.AnswerRepository     { return &mockAnswerRepo{m} }
func (m *MockRepository) CheatLog() repositories.CheatLogRepository { return &mockCheatLogRepo{m} }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// ===== EXAM =====

type mockExamRepo struct{ m *MockRepository }

func (r *mockExamRepo) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	r.m.exams[exam.ID] = exam
	return nil
}

func (r *mockExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	exam, ok := r.m.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (r *mockExamRepo) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	r.m.exams[exam.ID] = exam
	return nil
}

func (r *mockExamRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ExamStatus, endTime *time.Time) error {
	exam, ok := r.m.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.Status = status
	if endTime != nil {
		exam.EndTime = *endTime
	}
	return nil
}

func (r *mockExamRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.exams, id)
	return nil
}

func (r *mockExamRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	exams := make([]*models.Exam, 0, len(r.m.exams))
	for _, e := range r.m.exams {
		exams = append(exams, e)
	}
	return exams, int64(len(exams)), nil
}

func (r *mockExamRepo) CountRecords(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	var count int64
	for _, rec := range r.m.records {
		if rec.ExamID == examID {
			count++
		}
	}
	return count, nil
}

// ===== PAPER =====

type mockPaperRepo struct{ m *MockRepository }

func (r *mockPaperRepo) Create(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error {
	r.m.papers[paper.ID] = paper
	return nil
}

func (r *mockPaperRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamPaper, error) {
	paper, ok := r.m.papers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return paper, nil
}

func (r *mockPaperRepo) Update(ctx context.Context, tx *gorm.DB, paper *models.ExamPaper) error {
	r.m.papers[paper.ID] = paper
	return nil
}

func (r *mockPaperRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.papers, id)
	return nil
}

func (r *mockPaperRepo) GetQuestions(ctx context.Context, tx *gorm.DB, paperID uint) ([]*models.ExamPaperQuestion, error) {
	return r.m.paperQuestions[paperID], nil
}

func (r *mockPaperRepo) AddQuestion(ctx context.Context, tx *gorm.DB, pq *models.ExamPaperQuestion) error {
	r.m.paperQuestions[pq.PaperID] = append(r.m.paperQuestions[pq.PaperID], pq)
	return nil
}

func (r *mockPaperRepo) RemoveQuestion(ctx context.Context, tx *gorm.DB, paperID, questionID uint) error {
	pqs := r.m.paperQuestions[paperID]
	for i, pq := range pqs {
		if pq.QuestionID == questionID {
			r.m.paperQuestions[paperID] = append(pqs[:i], pqs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockPaperRepo) RecalculateTotalScore(ctx context.Context, tx *gorm.DB, paperID uint) (float64, error) {
	total := 0.0
	for _, pq := range r.m.paperQuestions[paperID] {
		total += pq.Score
	}
	if paper, ok := r.m.papers[paperID]; ok {
		paper.TotalScore = total
	}
	return total, nil
}

// ===== QUESTION =====

type mockQuestionRepo struct{ m *MockRepository }

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	q, ok := r.m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *mockQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// ===== RECORD =====

type mockRecordRepo struct{ m *MockRepository }

func (r *mockRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error {
	r.m.records[record.ID] = record
	return nil
}

func (r *mockRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamRecord, error) {
	record, ok := r.m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *mockRecordRepo) GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) (*models.ExamRecord, error) {
	for _, rec := range r.m.records {
		if rec.ExamID == examID && rec.UserID == userID {
			return rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockRecordRepo) Update(ctx context.Context, tx *gorm.DB, record *models.ExamRecord) error {
	r.m.records[record.ID] = record
	r.m.updatedRecords = append(r.m.updatedRecords, record)
	return nil
}

func (r *mockRecordRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.RecordFilters) ([]*models.ExamRecord, int64, error) {
	records := make([]*models.ExamRecord, 0, len(r.m.records))
	for _, rec := range r.m.records {
		records = append(records, rec)
	}
	return records, int64(len(records)), nil
}

func (r *mockRecordRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamRecord, error) {
	var out []*models.ExamRecord
	for _, rec := range r.m.records {
		if rec.ExamID == examID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *mockRecordRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.RecordFilters) ([]*models.ExamRecord, int64, error) {
	var out []*models.ExamRecord
	for _, rec := range r.m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockRecordRepo) ListPendingGrading(ctx context.Context, tx *gorm.DB, examID uint, limit, offset int) ([]*models.ExamRecord, int64, error) {
	var out []*models.ExamRecord
	for _, rec := range r.m.records {
		if rec.ExamID == examID && rec.Status == models.RecordSubmitted {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockRecordRepo) GetScoreStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*repositories.RecordScoreStats, error) {
	if r.m.scoreStats != nil {
		return r.m.scoreStats, nil
	}
	return &repositories.RecordScoreStats{}, nil
}

func (r *mockRecordRepo) GetStatusCounts(ctx context.Context, tx *gorm.DB, examID uint) (*repositories.RecordStatusCounts, error) {
	if r.m.statusCounts != nil {
		return r.m.statusCounts, nil
	}
	return &repositories.RecordStatusCounts{}, nil
}

// ===== ANSWER =====

type mockAnswerRepo struct{ m *MockRepository }

func (r *mockAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, answer *models.ExamAnswer) error {
	for _, a := range r.m.answers {
		if a.RecordID == answer.RecordID && a.QuestionID == answer.QuestionID {
			a.Answer = answer.Answer
			return nil
		}
	}
	answer.ID = uint(len(r.m.answers) + 1)
	r.m.answers = append(r.m.answers, answer)
	return nil
}

func (r *mockAnswerRepo) GetByRecord(ctx context.Context, tx *gorm.DB, recordID uint) ([]*models.ExamAnswer, error) {
	var out []*models.ExamAnswer
	for _, a := range r.m.answers {
		if a.RecordID == recordID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAnswerRepo) GetByRecordAndQuestion(ctx context.Context, tx *gorm.DB, recordID, questionID uint) (*models.ExamAnswer, error) {
	for _, a := range r.m.answers {
		if a.RecordID == recordID && a.QuestionID == questionID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAnswerRepo) UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *string) error {
	r.m.scoreUpdates = append(r.m.scoreUpdates, scoreUpdate{answerID: id, score: score, gradedBy: gradedBy})
	for _, a := range r.m.answers {
		if a.ID == id {
			s := score
			a.Score = &s
			a.GradedBy = gradedBy
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockAnswerRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamAnswer, error) {
	var out []*models.ExamAnswer
	for _, a := range r.m.answers {
		if rec, ok := r.m.records[a.RecordID]; ok && rec.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ===== CHEAT LOG =====

type mockCheatLogRepo struct{ m *MockRepository }

func (r *mockCheatLogRepo) Increment(ctx context.Context, tx *gorm.DB, examID uint, userID, cheatType string, at time.Time) (*models.ExamCheatLog, error) {
	for _, l := range r.m.cheatLogs {
		if l.ExamID == examID && l.UserID == userID && l.CheatType == cheatType {
			l.Count++
			l.LastTime = at
			return l, nil
		}
	}
	log := &models.ExamCheatLog{
		ID:        uint(len(r.m.cheatLogs) + 1),
		ExamID:    examID,
		UserID:    userID,
		CheatType: cheatType,
		Count:     1,
		LastTime:  at,
	}
	r.m.cheatLogs = append(r.m.cheatLogs, log)
	return log, nil
}

func (r *mockCheatLogRepo) GetByExamAndUser(ctx context.Context, tx *gorm.DB, examID uint, userID string) ([]*models.ExamCheatLog, error) {
	var out []*models.ExamCheatLog
	for _, l := range r.m.cheatLogs {
		if l.ExamID == examID && l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *mockCheatLogRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamCheatLog, error) {
	var out []*models.ExamCheatLog
	for _, l := range r.m.cheatLogs {
		if l.ExamID == examID {
			out = append(out, l)
		}
	}
	return out, nil
}
