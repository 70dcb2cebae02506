package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/desertthunder/sp2yt/internal/models"
)

func TestClassifyAddError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{name: "nil", err: nil, want: models.UnknownError},
		{name: "reason video not found", err: &APIError{Status: 404, Reason: "videoNotFound"}, want: models.VideoNotFound},
		{name: "reason private", err: &APIError{Status: 403, Reason: "videoPrivate"}, want: models.VideoPrivateOrDeleted},
		{name: "reason embedding", err: &APIError{Status: 403, Reason: "embeddingNotAllowed"}, want: models.AddingDisabled},
		{name: "reason quota", err: &APIError{Status: 403, Reason: "quotaExceeded"}, want: models.QuotaExceeded},
		{name: "reason forbidden", err: &APIError{Status: 403, Reason: "forbidden"}, want: models.Forbidden},
		{name: "reason invalid value", err: &APIError{Status: 400, Reason: "invalidValue"}, want: models.BadRequest},
		{name: "reason beats status", err: &APIError{Status: 404, Reason: "quotaExceeded"}, want: models.QuotaExceeded},
		{name: "status 404", err: &APIError{Status: 404}, want: models.VideoNotFound},
		{name: "status 403 deleted message", err: &APIError{Status: 403, Message: "This video was Deleted"}, want: models.VideoPrivateOrDeleted},
		{name: "status 403", err: &APIError{Status: 403, Message: "nope"}, want: models.Forbidden},
		{name: "status 400", err: &APIError{Status: 400}, want: models.BadRequest},
		{name: "status 429", err: &APIError{Status: 429}, want: models.QuotaExceeded},
		{name: "status 500", err: &APIError{Status: 500}, want: models.UnknownError},
		{name: "wrapped api error", err: fmt.Errorf("add: %w", &APIError{Status: 404}), want: models.VideoNotFound},
		{name: "url error", err: &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, want: models.NetworkError},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("no route")}, want: models.NetworkError},
		{name: "deadline", err: context.DeadlineExceeded, want: models.NetworkError},
		{name: "other", err: errors.New("boom"), want: models.UnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ClassifyAddError(tt.err)
			if got != tt.want {
				t.Errorf("ClassifyAddError() = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("message from api error", func(t *testing.T) {
		_, msg := ClassifyAddError(&APIError{Status: 403, Reason: "forbidden", Message: "not yours"})
		if msg != "not yours" {
			t.Errorf("expected api message, got %q", msg)
		}
	})

	t.Run("every kind is in the taxonomy", func(t *testing.T) {
		for reason, kind := range reasonKinds {
			found := false
			for _, k := range models.ErrorKinds {
				if k == kind {
					found = true
				}
			}
			if !found {
				t.Errorf("reason %s maps to unknown kind %s", reason, kind)
			}
		}
	})
}
