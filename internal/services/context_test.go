package services_test

import (
	"context"
	"testing"

	"talkpress/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVideo(ctx, "2024/10179")
	ctx = services.WithStage(ctx, "translate")
	ctx = services.WithRunID(ctx, "run-123")

	if video, ok := services.VideoFromContext(ctx); !ok || video != "2024/10179" {
		t.Fatalf("unexpected video: %v %v", video, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "translate" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithVideo(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.VideoFromContext(ctx); ok {
		t.Fatal("expected no video value")
	}
}
