package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// 不连接数据库，只校验生成的 SQL 与绑定参数

type capturedStmt struct {
	sql  string
	vars []interface{}
}

func newDryRunDB(t *testing.T) (*gorm.DB, *[]capturedStmt) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("初始化 DryRun 连接失败: %v", err)
	}

	stmts := &[]capturedStmt{}
	capture := func(tx *gorm.DB) {
		vars := make([]interface{}, len(tx.Statement.Vars))
		copy(vars, tx.Statement.Vars)
		*stmts = append(*stmts, capturedStmt{sql: tx.Statement.SQL.String(), vars: vars})
	}
	if err := db.Callback().Create().After("gorm:create").Register("test:capture", capture); err != nil {
		t.Fatalf("注册回调失败: %v", err)
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:capture", capture); err != nil {
		t.Fatalf("注册回调失败: %v", err)
	}
	return db, stmts
}

// insertBinding 返回 INSERT 语句中某列对应的绑定值（单行插入时列与参数一一对应）
func insertBinding(t *testing.T, st capturedStmt, column string) interface{} {
	t.Helper()
	open := strings.Index(st.sql, "(")
	end := strings.Index(st.sql, ") VALUES")
	if open < 0 || end < open {
		t.Fatalf("不是 INSERT 语句: %s", st.sql)
	}
	cols := strings.Split(st.sql[open+1:end], ",")
	for i, col := range cols {
		if strings.Trim(strings.TrimSpace(col), `"`) == column {
			if i >= len(st.vars) {
				t.Fatalf("列 %s 无绑定参数: %v", column, st.vars)
			}
			return st.vars[i]
		}
	}
	t.Fatalf("INSERT 未包含列 %s: %s", column, st.sql)
	return nil
}

func TestReviewUpsert_FinalReviewBindsFalse(t *testing.T) {
	db, stmts := newDryRunDB(t)
	repo := NewReviewRepo(db)

	review := &model.Review{
		AssignmentID: "a0000000-0000-0000-0000-000000000001",
		ReviewerID:   "u0000000-0000-0000-0000-000000000001",
		Scores:       datatypes.NewJSONType(model.ScoreMap{"C1": 4}),
		Comments:     datatypes.NewJSONType(model.CommentMap{"C1": "good"}),
		SubmittedAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		IsDraft:      false,
	}
	if err := repo.Upsert(context.Background(), review); err != nil {
		t.Fatalf("Upsert 失败: %v", err)
	}
	if len(*stmts) != 1 {
		t.Fatalf("期望 1 条语句，实际 %d", len(*stmts))
	}
	st := (*stmts)[0]

	if got := insertBinding(t, st, "is_draft"); got != false {
		t.Errorf("期望 is_draft 绑定 false，实际 %v", got)
	}
	if review.IsDraft {
		t.Error("期望写入后 IsDraft 仍为 false")
	}

	for _, want := range []string{
		`ON CONFLICT ("assignment_id")`,
		`"scores"="excluded"."scores"`,
		`"comments"="excluded"."comments"`,
		`"submitted_at"="excluded"."submitted_at"`,
		`"is_draft"="excluded"."is_draft"`,
		`"updated_by"="excluded"."updated_by"`,
		`"updated_at"="excluded"."updated_at"`,
	} {
		if !strings.Contains(st.sql, want) {
			t.Errorf("期望 SQL 包含 %s，实际 %s", want, st.sql)
		}
	}
}

func TestReviewUpsert_DraftBindsTrue(t *testing.T) {
	db, stmts := newDryRunDB(t)

	review := &model.Review{
		AssignmentID: "a0000000-0000-0000-0000-000000000001",
		ReviewerID:   "u0000000-0000-0000-0000-000000000001",
		Scores:       datatypes.NewJSONType(model.ScoreMap{}),
		Comments:     datatypes.NewJSONType(model.CommentMap{}),
		IsDraft:      true,
	}
	if err := NewReviewRepo(db).Upsert(context.Background(), review); err != nil {
		t.Fatalf("Upsert 失败: %v", err)
	}
	if got := insertBinding(t, (*stmts)[0], "is_draft"); got != true {
		t.Errorf("期望 is_draft 绑定 true，实际 %v", got)
	}
}

func TestReviewListFinalByBook_FiltersDrafts(t *testing.T) {
	db, stmts := newDryRunDB(t)

	if _, err := NewReviewRepo(db).ListFinalByBook(context.Background(), "book-1"); err != nil {
		t.Fatalf("ListFinalByBook 失败: %v", err)
	}
	if len(*stmts) != 1 {
		t.Fatalf("期望 1 条语句，实际 %d", len(*stmts))
	}
	st := (*stmts)[0]
	if !strings.Contains(st.sql, "reviews.is_draft = $2") {
		t.Errorf("期望按 is_draft 过滤，实际 %s", st.sql)
	}
	if len(st.vars) != 2 || st.vars[0] != "book-1" || st.vars[1] != false {
		t.Errorf("期望参数 [book-1 false]，实际 %v", st.vars)
	}
}

func TestUserCreate_InactiveBindsFalse(t *testing.T) {
	db, stmts := newDryRunDB(t)

	user := &model.User{
		Name:         "停用账号",
		Email:        "off@example.com",
		PasswordHash: "x",
		Role:         model.RoleReviewer,
		IsActive:     false,
	}
	if err := NewUserRepo(db).Create(context.Background(), user); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if got := insertBinding(t, (*stmts)[0], "is_active"); got != false {
		t.Errorf("期望 is_active 绑定 false，实际 %v", got)
	}
}

func TestBookSearch_EscapesWildcards(t *testing.T) {
	db, stmts := newDryRunDB(t)

	if _, _, err := NewBookRepo(db).Search(context.Background(), `50%_off`, 0, 10); err != nil {
		t.Fatalf("Search 失败: %v", err)
	}
	// Count + Find
	if len(*stmts) != 2 {
		t.Fatalf("期望 2 条语句，实际 %d", len(*stmts))
	}

	want := `%50\%\_off%`
	for i, st := range *stmts {
		if !strings.Contains(st.sql, `ILIKE $1 ESCAPE '\'`) {
			t.Errorf("第 %d 条期望带 ESCAPE，实际 %s", i+1, st.sql)
		}
		if len(st.vars) < 3 {
			t.Fatalf("第 %d 条参数不足: %v", i+1, st.vars)
		}
		for j := 0; j < 3; j++ {
			if st.vars[j] != want {
				t.Errorf("第 %d 条参数 %d 期望 %q，实际 %v", i+1, j, want, st.vars[j])
			}
		}
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"中医基础":       "中医基础",
		"100%":       `100\%`,
		"a_b":        `a\_b`,
		`C:\path`:    `C:\\path`,
		`\%_`:        `\\\%\_`,
		"plain text": "plain text",
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}
