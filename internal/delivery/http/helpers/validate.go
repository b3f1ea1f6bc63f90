package helpers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"collegeevents/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// maxMemory is how much of a multipart body is kept in memory before spilling to temp files.
const maxMemory = 8 << 20

// Validator checks bound form structs against their `validate` tags.
// Besides the built-in rules it knows "notblank", "eventtype" (a configured
// event type) and "eventdate" (a value domain.ParseEventDate accepts).
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator whose "eventtype" rule accepts what isEventType accepts.
func NewValidator(isEventType func(string) bool) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return isEventType(fl.Field().String())
	})
	_ = v.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseEventDate(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Validate returns one message per broken rule; nil means valid.
func (val *Validator) Validate(dest any) []string {
	err := val.v.Struct(dest)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "eventtype":
		return fe.Field() + " is not a known event type"
	case "eventdate":
		return fe.Field() + " must be a date (YYYY-MM-DD) or date-time"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ParseForm reads a multipart or urlencoded body of at most maxBytes.
// On failure it writes a 400 JSON error and returns false.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", maxBytes))
			return false
		}
		WriteJSONError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return false
	}
	return true
}

// FormValue returns a pointer to the first value submitted for key, or nil when the key was not sent.
func FormValue(r *http.Request, key string) *string {
	vals, ok := r.PostForm[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// FormFile returns the single file submitted under key. ok is false when no file was sent.
// The caller closes the returned file.
func FormFile(r *http.Request, key string) (file multipart.File, header *multipart.FileHeader, ok bool, err error) {
	if r.MultipartForm == nil {
		return nil, nil, false, nil
	}
	file, header, err = r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return file, header, true, nil
}

// DrainAndClose discards what is left of a file so temp storage is released.
func DrainAndClose(f io.ReadCloser) {
	_, _ = io.Copy(io.Discard, f)
	_ = f.Close()
}

// JoinMessages renders validation messages the way every 400 response carries them.
func JoinMessages(msgs []string) string {
	return strings.Join(msgs, "; ")
}
