package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is shared by every handler; validator caches struct metadata and is safe for concurrent use.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so error locations match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ErrorDetail locates one problem in a request body.
type ErrorDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// RequestError is a client error produced while binding a request body.
type RequestError struct {
	Status int
	Detail []ErrorDetail
}

func (e *RequestError) Error() string {
	parts := make([]string, len(e.Detail))
	for i, d := range e.Detail {
		parts[i] = fmt.Sprintf("%s: %s", strings.Join(d.Loc, "."), d.Msg)
	}
	return strings.Join(parts, "; ")
}

func invalid(loc []string, typ, msg string) *RequestError {
	return &RequestError{
		Status: http.StatusUnprocessableEntity,
		Detail: []ErrorDetail{{Loc: loc, Msg: msg, Type: typ}},
	}
}

// Bind decodes a JSON body of at most maxBytes into dst and validates it.
// The body must be exactly one JSON object, and only keys that equal a json
// tag of dst are bound. Every failure is returned as a *RequestError.
func Bind(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return decodeError(err)
		}
		return invalid([]string{"body"}, "json_invalid", "JSON decode error")
	}

	// encoding/json folds case when matching keys; drop anything that is
	// not an exact field name so "Text" cannot stand in for "text".
	names := jsonFieldNames(reflect.TypeOf(dst))
	exact := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if names[k] {
			exact[k] = v
		}
	}
	data, err := json.Marshal(exact)
	if err != nil {
		return invalid([]string{"body"}, "json_invalid", err.Error())
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return decodeError(err)
	}

	if err := Validator.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	names := map[string]bool{}
	if t.Kind() != reflect.Struct {
		return names
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names[name] = true
	}
	return names
}

func decodeError(err error) *RequestError {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return &RequestError{
			Status: http.StatusRequestEntityTooLarge,
			Detail: []ErrorDetail{{
				Loc:  []string{"body"},
				Msg:  fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit),
				Type: "body_too_large",
			}},
		}
	case errors.Is(err, io.EOF):
		return invalid([]string{"body"}, "missing", "Field required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return invalid([]string{"body"}, "json_invalid", "JSON decode error")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return invalid([]string{"body"}, "model_attributes_type", "Input should be a valid dictionary or object to extract fields from")
		}
		loc := append([]string{"body"}, strings.Split(typeErr.Field, ".")...)
		kind := typeErr.Type.Kind().String()
		return invalid(loc, kind+"_type", fmt.Sprintf("Input should be a valid %s", kind))
	default:
		return invalid([]string{"body"}, "json_invalid", err.Error())
	}
}

func validationError(err error) *RequestError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid([]string{"body"}, "value_error", err.Error())
	}
	out := &RequestError{Status: http.StatusUnprocessableEntity}
	for _, fe := range verrs {
		loc := []string{"body", fe.Field()}
		switch fe.Tag() {
		case "required":
			out.Detail = append(out.Detail, ErrorDetail{Loc: loc, Msg: "Field required", Type: "missing"})
		default:
			out.Detail = append(out.Detail, ErrorDetail{Loc: loc, Msg: fe.Error(), Type: fe.Tag()})
		}
	}
	return out
}

// ValidationError answers a binding failure. Client errors are not system
// faults, so they are logged at debug level.
func ValidationError(log *slog.Logger, w http.ResponseWriter, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = invalid([]string{"body"}, "value_error", err.Error())
	}
	log.Debug("request rejected", "status", reqErr.Status, "err", reqErr)
	WriteJSON(w, reqErr.Status, map[string]any{"detail": reqErr.Detail})
}
