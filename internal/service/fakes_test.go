package service

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

/* ---------------- In-memory fakes that satisfy the repository interfaces ---------------- */

// memContent is a ContentStore with per-question row locks held until the
// end of InTx and an undo log for rollback. Reads and writes of different
// transactions interleave freely otherwise, like READ COMMITTED.
type memContent struct {
	mu        sync.Mutex
	seq       int
	quizzes   map[int]model.Quiz
	questions map[int]model.Question
	options   map[int]model.Option

	lockMu    sync.Mutex
	rowLocks  map[int]*sync.Mutex
	failWrite error // returned by the next CreateOption/UpdateOption when set
}

func newMemContent() *memContent {
	return &memContent{
		quizzes:   map[int]model.Quiz{},
		questions: map[int]model.Question{},
		options:   map[int]model.Option{},
		rowLocks:  map[int]*sync.Mutex{},
	}
}

type memTx struct {
	s     *memContent
	undo  []func()
	locks []*sync.Mutex
	held  map[int]bool
}

func (s *memContent) InTx(ctx context.Context, fn func(tx repository.ContentTx) error) error {
	tx := &memTx{s: s, held: map[int]bool{}}
	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}
	for _, l := range tx.locks {
		l.Unlock()
	}
	return err
}

// autocommit runs a single operation outside any explicit transaction.
func (s *memContent) autocommit(ctx context.Context, fn func(tx *memTx) error) error {
	return s.InTx(ctx, func(tx repository.ContentTx) error { return fn(tx.(*memTx)) })
}

func (s *memContent) ListQuizzes(ctx context.Context) (out []model.Quiz, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.ListQuizzes(ctx); return err })
	return out, err
}
func (s *memContent) GetQuiz(ctx context.Context, id int) (out *model.Quiz, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.GetQuiz(ctx, id); return err })
	return out, err
}
func (s *memContent) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.CreateQuiz(ctx, q) })
}
func (s *memContent) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.UpdateQuiz(ctx, q) })
}
func (s *memContent) DeleteQuiz(ctx context.Context, id int) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.DeleteQuiz(ctx, id) })
}
func (s *memContent) ListQuestionsByQuizIDs(ctx context.Context, ids []int) (out []model.Question, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.ListQuestionsByQuizIDs(ctx, ids); return err })
	return out, err
}
func (s *memContent) GetQuestion(ctx context.Context, id int) (out *model.Question, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.GetQuestion(ctx, id); return err })
	return out, err
}
func (s *memContent) LockQuestion(ctx context.Context, id int) (out *model.Question, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.LockQuestion(ctx, id); return err })
	return out, err
}
func (s *memContent) CreateQuestion(ctx context.Context, q *model.Question) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.CreateQuestion(ctx, q) })
}
func (s *memContent) UpdateQuestion(ctx context.Context, q *model.Question) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.UpdateQuestion(ctx, q) })
}
func (s *memContent) DeleteQuestion(ctx context.Context, id int) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.DeleteQuestion(ctx, id) })
}
func (s *memContent) DeleteQuestionsByQuiz(ctx context.Context, quizID int) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.DeleteQuestionsByQuiz(ctx, quizID) })
}
func (s *memContent) ListOptionsByQuestionIDs(ctx context.Context, ids []int) (out []model.Option, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.ListOptionsByQuestionIDs(ctx, ids); return err })
	return out, err
}
func (s *memContent) GetOption(ctx context.Context, id int) (out *model.Option, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { out, err = tx.GetOption(ctx, id); return err })
	return out, err
}
func (s *memContent) CreateOption(ctx context.Context, o *model.Option) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.CreateOption(ctx, o) })
}
func (s *memContent) UpdateOption(ctx context.Context, o *model.Option) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.UpdateOption(ctx, o) })
}
func (s *memContent) DeleteOption(ctx context.Context, id int) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.DeleteOption(ctx, id) })
}
func (s *memContent) DeleteOptionsByQuestionIDs(ctx context.Context, ids []int) error {
	return s.autocommit(ctx, func(tx *memTx) error { return tx.DeleteOptionsByQuestionIDs(ctx, ids) })
}
func (s *memContent) ClearCorrectOptions(ctx context.Context, questionID, except int) (n int64, err error) {
	err = s.autocommit(ctx, func(tx *memTx) error { n, err = tx.ClearCorrectOptions(ctx, questionID, except); return err })
	return n, err
}

func (s *memContent) correctCount(questionID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.options {
		if o.QuestionID == questionID && o.IsCorrect {
			n++
		}
	}
	return n
}

// ─── memTx: operations inside one unit of work ─────────────────────────

func (tx *memTx) nextID() int {
	tx.s.seq++
	return tx.s.seq
}

func (tx *memTx) ListQuizzes(ctx context.Context) ([]model.Quiz, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	var out []model.Quiz
	for _, q := range tx.s.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) GetQuiz(ctx context.Context, id int) (*model.Quiz, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	q, ok := tx.s.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (tx *memTx) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	q.ID = tx.nextID()
	q.CreatedAt, q.UpdatedAt = time.Now(), time.Now()
	tx.s.quizzes[q.ID] = *q
	id := q.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.quizzes, id) })
	return nil
}

func (tx *memTx) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	old, ok := tx.s.quizzes[q.ID]
	if !ok {
		return repository.ErrNotFound
	}
	q.CreatedAt, q.UpdatedAt = old.CreatedAt, time.Now()
	tx.s.quizzes[q.ID] = *q
	tx.undo = append(tx.undo, func() { tx.s.quizzes[old.ID] = old })
	return nil
}

func (tx *memTx) DeleteQuiz(ctx context.Context, id int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	old, ok := tx.s.quizzes[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(tx.s.quizzes, id)
	tx.undo = append(tx.undo, func() { tx.s.quizzes[id] = old })
	return nil
}

func (tx *memTx) ListQuestionsByQuizIDs(ctx context.Context, ids []int) ([]model.Question, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	want := toSet(ids)
	var out []model.Question
	for _, q := range tx.s.questions {
		if want[q.QuizID] {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) GetQuestion(ctx context.Context, id int) (*model.Question, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	q, ok := tx.s.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (tx *memTx) LockQuestion(ctx context.Context, id int) (*model.Question, error) {
	if !tx.held[id] {
		tx.s.lockMu.Lock()
		l, ok := tx.s.rowLocks[id]
		if !ok {
			l = &sync.Mutex{}
			tx.s.rowLocks[id] = l
		}
		tx.s.lockMu.Unlock()
		l.Lock()
		tx.locks = append(tx.locks, l)
		tx.held[id] = true
	}
	return tx.GetQuestion(ctx, id)
}

func (tx *memTx) CreateQuestion(ctx context.Context, q *model.Question) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if _, ok := tx.s.quizzes[q.QuizID]; !ok {
		return repository.ErrParentNotFound
	}
	q.ID = tx.nextID()
	tx.s.questions[q.ID] = *q
	id := q.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.questions, id) })
	return nil
}

func (tx *memTx) UpdateQuestion(ctx context.Context, q *model.Question) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	old, ok := tx.s.questions[q.ID]
	if !ok {
		return repository.ErrNotFound
	}
	q.QuizID = old.QuizID
	tx.s.questions[q.ID] = *q
	tx.undo = append(tx.undo, func() { tx.s.questions[old.ID] = old })
	return nil
}

func (tx *memTx) DeleteQuestion(ctx context.Context, id int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	old, ok := tx.s.questions[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(tx.s.questions, id)
	tx.undo = append(tx.undo, func() { tx.s.questions[id] = old })
	return nil
}

func (tx *memTx) DeleteQuestionsByQuiz(ctx context.Context, quizID int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, q := range tx.s.questions {
		if q.QuizID == quizID {
			old := q
			delete(tx.s.questions, id)
			tx.undo = append(tx.undo, func() { tx.s.questions[old.ID] = old })
		}
	}
	return nil
}

func (tx *memTx) ListOptionsByQuestionIDs(ctx context.Context, ids []int) ([]model.Option, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	want := toSet(ids)
	var out []model.Option
	for _, o := range tx.s.options {
		if want[o.QuestionID] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) GetOption(ctx context.Context, id int) (*model.Option, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	o, ok := tx.s.options[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (tx *memTx) CreateOption(ctx context.Context, o *model.Option) error {
	runtime.Gosched()
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if err := tx.s.failWrite; err != nil {
		tx.s.failWrite = nil
		return err
	}
	if _, ok := tx.s.questions[o.QuestionID]; !ok {
		return repository.ErrParentNotFound
	}
	o.ID = tx.nextID()
	tx.s.options[o.ID] = *o
	id := o.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.options, id) })
	return nil
}

func (tx *memTx) UpdateOption(ctx context.Context, o *model.Option) error {
	runtime.Gosched()
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if err := tx.s.failWrite; err != nil {
		tx.s.failWrite = nil
		return err
	}
	old, ok := tx.s.options[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	o.QuestionID = old.QuestionID
	tx.s.options[o.ID] = *o
	tx.undo = append(tx.undo, func() { tx.s.options[old.ID] = old })
	return nil
}

func (tx *memTx) DeleteOption(ctx context.Context, id int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	old, ok := tx.s.options[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(tx.s.options, id)
	tx.undo = append(tx.undo, func() { tx.s.options[id] = old })
	return nil
}

func (tx *memTx) DeleteOptionsByQuestionIDs(ctx context.Context, ids []int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	want := toSet(ids)
	for id, o := range tx.s.options {
		if want[o.QuestionID] {
			old := o
			delete(tx.s.options, id)
			tx.undo = append(tx.undo, func() { tx.s.options[old.ID] = old })
		}
	}
	return nil
}

func (tx *memTx) ClearCorrectOptions(ctx context.Context, questionID, except int) (int64, error) {
	runtime.Gosched()
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	var n int64
	for id, o := range tx.s.options {
		if o.QuestionID == questionID && id != except && o.IsCorrect {
			old := o
			o.IsCorrect = false
			tx.s.options[id] = o
			tx.undo = append(tx.undo, func() { tx.s.options[old.ID] = old })
			n++
		}
	}
	return n, nil
}

func toSet(ids []int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// ─── Students ──────────────────────────────────────────────────────────

type fakeStudents struct {
	mu       sync.Mutex
	byID     map[int]model.Student
	seq      int
	getErr   error
	rehashed map[int]string
}

func newFakeStudents() *fakeStudents {
	return &fakeStudents{byID: map[int]model.Student{}, rehashed: map[int]string{}}
}

func (f *fakeStudents) GetByID(ctx context.Context, id int) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStudents) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, s := range f.byID {
		if s.Email == repository.NormalizeEmail(email) {
			st := s
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStudents) Create(ctx context.Context, s *model.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := repository.NormalizeEmail(s.Email)
	for _, existing := range f.byID {
		if existing.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	f.seq++
	s.ID = f.seq
	s.Email = email
	s.CreatedAt = time.Now()
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeStudents) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.PasswordHash = hash
	f.byID[id] = s
	f.rehashed[id] = hash
	return nil
}

func (f *fakeStudents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// ─── Sessions ──────────────────────────────────────────────────────────

type fakeSessions struct {
	mu      sync.Mutex
	entries map[string]model.Principal
	touched int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{entries: map[string]model.Principal{}}
}

func (f *fakeSessions) Save(ctx context.Context, id string, p model.Principal, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[id] = p
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*model.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeSessions) Touch(ctx context.Context, id string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return repository.ErrNotFound
	}
	f.touched++
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

// ─── Events ────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ContentEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, ev model.ContentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) last() model.ContentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return model.ContentEvent{}
	}
	return r.events[len(r.events)-1]
}
