package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
)

// reasonKinds maps YouTube error reasons to failure kinds.
var reasonKinds = map[string]models.ErrorKind{
	"videoNotFound":                models.VideoNotFound,
	"playlistNotFound":             models.UnknownError,
	"videoPrivate":                 models.VideoPrivateOrDeleted,
	"videoUnavailable":             models.VideoPrivateOrDeleted,
	"videoDeleted":                 models.VideoPrivateOrDeleted,
	"embeddingNotAllowed":          models.AddingDisabled,
	"videoNotAllowed":              models.AddingDisabled,
	"playlistOperationUnsupported": models.AddingDisabled,
	"playlistItemsNotAccessible":   models.AddingDisabled,
	"quotaExceeded":                models.QuotaExceeded,
	"dailyLimitExceeded":           models.QuotaExceeded,
	"rateLimitExceeded":            models.QuotaExceeded,
	"userRateLimitExceeded":        models.QuotaExceeded,
	"forbidden":                    models.Forbidden,
	"insufficientPermissions":      models.Forbidden,
	"invalidValue":                 models.BadRequest,
	"badRequest":                   models.BadRequest,
	"manualSortRequired":           models.BadRequest,
}

// ClassifyAddError assigns a failed playlist addition to a [models.ErrorKind] and returns
// the message to record with it.
//
// The reason reported by the API decides first, then the HTTP status, then the
// transport error type.
func ClassifyAddError(err error) (models.ErrorKind, string) {
	if err == nil {
		return models.UnknownError, ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if kind, ok := reasonKinds[apiErr.Reason]; ok {
			return kind, apiErr.Message
		}
		switch apiErr.Status {
		case http.StatusNotFound:
			return models.VideoNotFound, apiErr.Message
		case http.StatusForbidden:
			msg := strings.ToLower(apiErr.Message)
			if strings.Contains(msg, "private") || strings.Contains(msg, "deleted") {
				return models.VideoPrivateOrDeleted, apiErr.Message
			}
			return models.Forbidden, apiErr.Message
		case http.StatusBadRequest:
			return models.BadRequest, apiErr.Message
		case http.StatusTooManyRequests:
			return models.QuotaExceeded, apiErr.Message
		}
		return models.UnknownError, apiErr.Message
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return models.NetworkError, err.Error()
	}
	return models.UnknownError, err.Error()
}
