package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv()
	svc := NewUserService(env.repo, env.audit, env.logger)

	resp, err := svc.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Name:     "赵六",
		Email:    "  Zhao@Example.com ",
		Password: "s3cret-pass",
		Role:     model.RoleReviewer,
	})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if resp.Email != "zhao@example.com" || !resp.IsActive {
		t.Errorf("用户信息不符: %+v", resp)
	}
	stored := env.users.users[resp.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Error("密码应以 bcrypt 哈希保存")
	}
	if got := env.audit.actions(); len(got) != 1 || got[0] != AuditActionCreateUser {
		t.Errorf("期望 create_user 审计，实际: %v", got)
	}
}

func TestUserService_CreateUser_Errors(t *testing.T) {
	env := newTestEnv()
	env.seedUser("rev-1", model.RoleReviewer)
	svc := NewUserService(env.repo, env.audit, env.logger)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   Actor
		req     *dto.CreateUserRequest
		wantErr error
	}{
		{"非管理员", secretariat, &dto.CreateUserRequest{Email: "a@b.c", Role: model.RoleReviewer}, ErrForbidden},
		{"非法角色", admin, &dto.CreateUserRequest{Email: "a@b.c", Role: "GUEST"}, ErrInvalidRole},
		{"邮箱重复", admin, &dto.CreateUserRequest{Email: "REV-1@example.com", Password: "password123", Role: model.RoleReviewer}, ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateUser(ctx, tt.actor, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserService_List(t *testing.T) {
	env := newTestEnv()
	env.seedUser("rev-1", model.RoleReviewer)
	env.seedUser("rev-2", model.RoleReviewer)
	env.seedUser("com-1", model.RoleCommittee)
	svc := NewUserService(env.repo, env.audit, env.logger)
	ctx := context.Background()

	list, total, err := svc.List(ctx, secretariat, &dto.UserListRequest{Role: model.RoleReviewer})
	if err != nil || total != 2 || len(list) != 2 {
		t.Errorf("按角色过滤结果不符: total=%d err=%v", total, err)
	}
	if _, _, err := svc.List(ctx, reviewerActor("rev-1"), &dto.UserListRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("评审人期望 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
