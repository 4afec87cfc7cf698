package services_test

import (
	"context"
	"testing"

	"stagehand/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "Blur Filter")
	ctx = services.WithStepIndex(ctx, 2)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "Blur Filter" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if step, ok := services.StepIndexFromContext(ctx); !ok || step != 2 {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.StepIndexFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
}
