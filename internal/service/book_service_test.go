package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/queue"
)

// ── Fake ObjectStore / Enqueuer ──

type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: make(map[string][]byte)} }

func (s *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if data, ok := s.objects[key]; ok {
		return data, nil
	}
	return nil, errors.New("object not found")
}

func (s *fakeStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	return "https://files.example.com/" + key + "?expires=" + expiry.String(), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type fakeQueue struct {
	jobs []queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, jobType, targetID string) (queue.Job, error) {
	if q.err != nil {
		return queue.Job{}, q.err
	}
	job := queue.Job{ID: "job-" + targetID, Type: jobType, TargetID: targetID, Status: queue.StatusQueued}
	q.jobs = append(q.jobs, job)
	return job, nil
}

func pdfUpload() UploadFile {
	content := []byte("%PDF-1.4 test")
	return UploadFile{
		Name:        "book.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Reader:      bytes.NewReader(content),
	}
}

func setupBookService(env *testEnv, store *fakeStore, q *fakeQueue) BookService {
	return NewBookService(env.cfg, env.repo, store, q, env.audit, env.logger)
}

// ── Upload ──

func TestBookUpload_Success(t *testing.T) {
	env := newTestEnv()
	store, q := newFakeStore(), &fakeQueue{}
	svc := setupBookService(env, store, q)

	resp, err := svc.Upload(context.Background(), secretariat, &dto.UploadBookRequest{
		Title:   "  方剂学  ",
		Authors: "王五",
	}, pdfUpload())
	if err != nil {
		t.Fatalf("上传应成功: %v", err)
	}
	if resp.Status != model.BookStatusPendingReview {
		t.Errorf("新教材应为 PENDING_REVIEW，实际: %s", resp.Status)
	}
	if resp.Title != "方剂学" || resp.UploadedBy != secretariat.UserID {
		t.Errorf("元数据不符: %+v", resp)
	}
	if !strings.HasPrefix(resp.PDFPath, "books/") || !strings.HasSuffix(resp.PDFPath, ".pdf") {
		t.Errorf("存储路径不符: %s", resp.PDFPath)
	}
	if _, ok := store.objects[resp.PDFPath]; !ok {
		t.Error("文件应已写入对象存储")
	}
	if len(q.jobs) != 1 || q.jobs[0].Type != queue.JobExtractText || q.jobs[0].TargetID != resp.ID {
		t.Errorf("应投递一个全文抽取任务，实际: %+v", q.jobs)
	}
}

func TestBookUpload_QueueFailureDoesNotFailUpload(t *testing.T) {
	env := newTestEnv()
	svc := setupBookService(env, newFakeStore(), &fakeQueue{err: errors.New("redis down")})

	if _, err := svc.Upload(context.Background(), secretariat, &dto.UploadBookRequest{Title: "t", Authors: "a"}, pdfUpload()); err != nil {
		t.Errorf("投递失败不应影响上传: %v", err)
	}
}

func TestBookUpload_Rejections(t *testing.T) {
	env := newTestEnv()
	svc := setupBookService(env, newFakeStore(), &fakeQueue{})
	ctx := context.Background()
	meta := &dto.UploadBookRequest{Title: "t", Authors: "a"}

	if _, err := svc.Upload(ctx, reviewerActor("rev-1"), meta, pdfUpload()); !errors.Is(err, ErrForbidden) {
		t.Errorf("评审人期望 ErrForbidden，实际: %v", err)
	}

	docx := pdfUpload()
	docx.Name, docx.ContentType = "book.docx", "application/msword"
	if _, err := svc.Upload(ctx, secretariat, meta, docx); !errors.Is(err, ErrBookFileUnsupported) {
		t.Errorf("非 PDF 期望 ErrBookFileUnsupported，实际: %v", err)
	}

	_, err := svc.Upload(ctx, secretariat, &dto.UploadBookRequest{}, UploadFile{})
	ve, ok := pkgerrors.AsValidationError(err)
	if !ok || len(ve.Fields) != 3 {
		t.Errorf("期望 title/authors/file 三个字段错误，实际: %v", err)
	}

	noStore := NewBookService(env.cfg, env.repo, nil, nil, env.audit, env.logger)
	if _, err := noStore.Upload(ctx, secretariat, meta, pdfUpload()); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("未配置存储期望 ErrStorageUnavailable，实际: %v", err)
	}
	if len(env.books.books) != 0 {
		t.Error("失败的上传不应创建教材")
	}
}

// ── 查询 ──

func TestBookService_GetListSearch(t *testing.T) {
	env := newTestEnv()
	env.seedBook("book-1", model.BookStatusPendingReview)
	env.seedBook("book-2", model.BookStatusUnderReview)
	_ = env.books.UpsertText(context.Background(), &model.BookText{BookID: "book-2", Content: "黄芪 补气"})
	svc := setupBookService(env, newFakeStore(), &fakeQueue{})
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "missing"); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("期望 ErrBookNotFound，实际: %v", err)
	}

	list, total, err := svc.List(ctx, &dto.BookListRequest{Status: model.BookStatusUnderReview})
	if err != nil || total != 1 || list[0].ID != "book-2" {
		t.Errorf("按状态过滤结果不符: %+v total=%d err=%v", list, total, err)
	}

	found, total, err := svc.Search(ctx, &dto.BookSearchRequest{Q: "黄芪"})
	if err != nil || total != 1 || found[0].ID != "book-2" {
		t.Errorf("全文检索结果不符: %+v total=%d err=%v", found, total, err)
	}

	if _, _, err := svc.Search(ctx, &dto.BookSearchRequest{Q: "a"}); err == nil {
		t.Error("过短的关键词应被拒绝")
	}
}

func TestBookService_FileURL(t *testing.T) {
	env := newTestEnv()
	env.seedBook("book-1", model.BookStatusPendingReview)
	svc := setupBookService(env, newFakeStore(), &fakeQueue{})

	resp, err := svc.FileURL(context.Background(), "book-1")
	if err != nil {
		t.Fatalf("FileURL 应成功: %v", err)
	}
	if !strings.Contains(resp.URL, "books/book-1.pdf") || !strings.Contains(resp.URL, "10m0s") {
		t.Errorf("下载地址不符: %s", resp.URL)
	}
	if resp.ExpiresAt == "" {
		t.Error("应返回过期时间")
	}
}
