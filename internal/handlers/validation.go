package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mindfulpath/practicesite/internal/services"
	appErrors "github.com/mindfulpath/practicesite/pkg/errors"
	appValidator "github.com/mindfulpath/practicesite/pkg/validator"
)

const maxBodyBytes = 1 << 20

// readObject reads the request body and requires it to be a JSON object. The raw bytes are
// returned alongside the top-level members.
func readObject(c *gin.Context) ([]byte, map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, appErrors.NewBadRequest("could not read request body")
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil || members == nil {
		return nil, nil, appErrors.NewBadRequest("invalid JSON payload")
	}
	return body, members, nil
}

// withoutServerFields drops members the client may echo back but never sets.
func withoutServerFields(members map[string]json.RawMessage) ([]byte, error) {
	for _, key := range []string{"id", "createdAt", "updatedAt"} {
		delete(members, key)
	}
	return json.Marshal(members)
}

// serviceError maps service sentinels to API errors.
func serviceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrItemNotFound), errors.Is(err, services.ErrConfigEntryNotFound):
		return appErrors.ErrNotFound.WithInternal(err)
	case errors.Is(err, services.ErrUnknownConfigKey):
		return appErrors.ErrUnknownConfigKey.WithInternal(err)
	case errors.Is(err, services.ErrConfigNotDeletable):
		return appErrors.ErrConfigNotDeletable.WithInternal(err)
	case errors.Is(err, services.ErrItemConflict):
		return appErrors.ErrConflict.WithInternal(err)
	case errors.Is(err, services.ErrInvalidItem),
		errors.Is(err, services.ErrInvalidConfigValue),
		errors.Is(err, services.ErrInvalidReorder):
		return appErrors.NewBadRequest(formatValidationError(err)).WithInternal(err)
	default:
		return appErrors.FromError(err)
	}
}

func formatValidationError(err error) string {
	var ve appValidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return fmt.Sprintf("%s has the wrong type", prettifyFieldName(typeErr.Field))
		case errors.As(err, &syntaxErr):
			return "invalid JSON payload"
		case errors.Is(err, services.ErrInvalidReorder):
			return "invalid reorder request: " + lastSegment(err)
		default:
			return lastSegment(err)
		}
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "slug":
			messages = append(messages, fmt.Sprintf("%s must contain lowercase letters, digits and dashes", field))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, failure.Param))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, failure.Param))
		default:
			if failure.Param != "" {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
			} else {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
			}
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ReplaceAll(name, "_", " ")
}

// lastSegment returns the most specific part of a wrapped error message.
func lastSegment(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
