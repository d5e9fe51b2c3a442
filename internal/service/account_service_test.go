package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type accountFixture struct {
	svc       *AccountService
	students  *fakeStudents
	sessions  *SessionService
	passwords *PasswordService
}

func newAccountFixture(cost int) *accountFixture {
	passwords := NewPasswordService(cost)
	students := newFakeStudents()
	sessions := NewSessionService(&config.Config{SessionSecret: "k", SessionTTL: 7 * 24 * time.Hour}, newFakeSessions())
	creds := NewCredentialService(testAdmin, students, passwords)
	return &accountFixture{
		svc:       NewAccountService(creds, sessions, students, passwords, zerolog.Nop()),
		students:  students,
		sessions:  sessions,
		passwords: passwords,
	}
}

func registerReq(email string) model.RegisterRequest {
	return model.RegisterRequest{
		FullName:        "  Grace Hopper ",
		Email:           email,
		Password:        "cobol-rules",
		ConfirmPassword: "cobol-rules",
	}
}

func TestRegisterSignsStudentIn(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost)
	ctx := context.Background()

	student, sess, err := f.svc.Register(ctx, registerReq("Grace@Navy.mil"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if student.Email != "grace@navy.mil" || student.FullName != "Grace Hopper" {
		t.Errorf("unexpected student %+v", student)
	}
	if student.PasswordHash == "cobol-rules" || student.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if sess.Principal.Role != model.RoleStudent || sess.Principal.SubjectID != strconv.Itoa(student.ID) {
		t.Errorf("unexpected principal %+v", sess.Principal)
	}
	if _, err := f.sessions.Validate(ctx, sess.Token); err != nil {
		t.Errorf("issued session does not validate: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost)
	ctx := context.Background()

	if _, _, err := f.svc.Register(ctx, registerReq("grace@navy.mil")); err != nil {
		t.Fatal(err)
	}
	for _, email := range []string{"grace@navy.mil", "GRACE@navy.MIL", " grace@navy.mil "} {
		_, sess, err := f.svc.Register(ctx, registerReq(email))
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Register(%q) err = %v, want ErrEmailTaken", email, err)
		}
		if sess != nil {
			t.Errorf("Register(%q) issued a session", email)
		}
	}
	if n := f.students.count(); n != 1 {
		t.Errorf("students = %d, want 1", n)
	}
}

func TestRegisterBlankFullName(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost)
	req := registerReq("grace@navy.mil")
	req.FullName = " \t "

	_, sess, err := f.svc.Register(context.Background(), req)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "full_name" {
		t.Fatalf("err = %v, want full_name field error", err)
	}
	if sess != nil {
		t.Error("blank registration issued a session")
	}
	if n := f.students.count(); n != 0 {
		t.Errorf("students = %d, want 0", n)
	}
}

func TestLoginStudentAndAdmin(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost)
	ctx := context.Background()
	if _, _, err := f.svc.Register(ctx, registerReq("grace@navy.mil")); err != nil {
		t.Fatal(err)
	}

	sess, err := f.svc.Login(ctx, "grace@navy.mil", "cobol-rules")
	if err != nil {
		t.Fatalf("student login: %v", err)
	}
	if sess.Principal.Role != model.RoleStudent {
		t.Errorf("role = %s, want Student", sess.Principal.Role)
	}

	admin, err := f.svc.Login(ctx, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if admin.Principal.Role != model.RoleAdmin || admin.Principal.SubjectID != model.AdminSubjectID {
		t.Errorf("unexpected admin principal %+v", admin.Principal)
	}

	if _, err := f.svc.Login(ctx, "grace@navy.mil", "fortran"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost + 1)
	ctx := context.Background()

	old, _ := NewPasswordService(bcrypt.MinCost).Hash("cobol-rules")
	st := &model.Student{FullName: "Grace", Email: "grace@navy.mil", PasswordHash: old}
	if err := f.students.Create(ctx, st); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Login(ctx, "grace@navy.mil", "cobol-rules"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	newHash, ok := f.students.rehashed[st.ID]
	if !ok {
		t.Fatal("expected the hash to be upgraded")
	}
	if f.passwords.Verify(newHash, "cobol-rules") != PasswordSuccess {
		t.Error("upgraded hash should verify at the current cost")
	}
}

func TestLogoutInvalidatesImmediately(t *testing.T) {
	f := newAccountFixture(bcrypt.MinCost)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Logout(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.Validate(ctx, sess.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
}
