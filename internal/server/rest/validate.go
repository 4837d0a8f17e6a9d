package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

// fieldError is one entry of a 400 {"errors": [...]} response.
type fieldError struct {
	Path     string `json:"path"`
	Location string `json:"location"`
	Msg      string `json:"msg"`
}

type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

// messages maps "<json field>.<tag>" to the client-facing message.
var messages = map[string]string{
	"username.min":      "Username must be 3-30 characters.",
	"username.max":      "Username must be 3-30 characters.",
	"email.email":       "Email must be valid.",
	"password.min":      "Password must be at least 6 characters.",
	"password.required": "Password is required.",
	"title.min":         "Title must be 1-100 characters.",
	"title.max":         "Title must be 1-100 characters.",
	"status.oneof":      "Invalid status.",
	"priority.oneof":    "Invalid priority.",
	"deadline.required": "Deadline must be a valid date.",
	"deadline.iso8601":  "Deadline must be a valid date.",
	"deadline.future":   "Deadline must be a future date.",
}

var deadlineLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDeadline accepts RFC 3339 timestamps and plain dates (UTC midnight).
func parseDeadline(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func newValidator(c services.Clock) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := parseDeadline(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, err := parseDeadline(fl.Field().String())
		return err == nil && t.After(c.Now())
	})

	return v
}

// check validates req and returns the client-facing field errors, or nil.
func (s *Server) check(req any) []fieldError {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Path: "body", Location: "body", Msg: "Invalid request."}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value."
		}
		out = append(out, fieldError{Path: fe.Field(), Location: "body", Msg: msg})
	}
	return out
}

// decode reads a JSON body into dst. Malformed input is reported as field
// errors in the same shape as validation failures.
func decode(w http.ResponseWriter, r *http.Request, dst any) []fieldError {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return []fieldError{{Path: typeErr.Field, Location: "body", Msg: "Invalid value."}}
	case errors.Is(err, io.EOF):
		return []fieldError{{Path: "payload", Location: "body", Msg: "Payload cannot be empty"}}
	default:
		return []fieldError{{Path: "body", Location: "body", Msg: "Malformed JSON body."}}
	}
}

func writeFieldErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
}
