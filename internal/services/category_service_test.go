package services

import (
	"context"
	"testing"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCategoryService_CreateCategory_Success(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCategoryService(db, nil, newTestLogger())

	mock.ExpectExec("INSERT INTO categories").
		WillReturnResult(sqlmock.NewResult(1, 1))

	category, err := service.CreateCategory(context.Background(), &models.CreateCategoryRequest{
		Name:      "Home Fragrance",
		SortOrder: 2,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if category.Slug != "home-fragrance" {
		t.Fatalf("expected generated slug, got %q", category.Slug)
	}
	if !category.IsActive {
		t.Fatal("expected new category to be active")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCategoryService_CreateCategory_UnknownParent(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCategoryService(db, nil, newTestLogger())

	parentID := uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(parentID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := service.CreateCategory(context.Background(), &models.CreateCategoryRequest{
		Name:     "Diffusers",
		ParentID: &parentID,
	})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCategoryService_UpdateCategory_OwnParent(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	service := NewCategoryService(db, nil, newTestLogger())

	categoryID := uuid.New()
	_, err := service.UpdateCategory(context.Background(), categoryID, &models.UpdateCategoryRequest{
		Name:     "Loop",
		ParentID: &categoryID,
	})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCategoryService_ListCategories_OnlyActive(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCategoryService(db, nil, newTestLogger())

	mock.ExpectQuery("SELECT id, slug, name, parent_id, is_active, sort_order, created_at, updated_at\\s+FROM categories\\s+WHERE is_active = true").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "parent_id", "is_active", "sort_order", "created_at", "updated_at"}))

	if _, err := service.ListCategories(context.Background(), true); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
