package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// patternTag is a binding tag backed by a regular expression
type patternTag struct {
	re     *regexp.Regexp
	maxLen int
	hint   string
}

var patternTags = map[string]patternTag{
	"sku": {
		re:   regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,62}[A-Z0-9]$`),
		hint: "Must be an upper-case SKU such as TEE-BLK-M",
	},
	"slug": {
		re:     regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),
		maxLen: 200,
		hint:   "Must be a lower-case slug such as linen-shirt",
	},
}

// Messages for the built-in tags; %s is the tag parameter
var tagMessages = map[string]string{
	"required":         "This field is required",
	"email":            "Invalid email format",
	"uuid":             "Invalid UUID format",
	"oneof":            "Must be one of: %s",
	"gt":               "Must be greater than %s",
	"gte":              "Must be greater than or equal to %s",
	"lte":              "Must be less than or equal to %s",
	"len":              "Must be exactly %s characters",
	"iso3166_1_alpha2": "Must be a two-letter country code",
}

// SetupValidator makes gin report fields by their json, form or uri name and
// registers the sku and slug tags
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(wireName)

	for tag, p := range patternTags {
		if err := v.RegisterValidation(tag, p.validate); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func (p patternTag) validate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if p.maxLen > 0 && len(s) > p.maxLen {
		return false
	}
	return p.re.MatchString(s)
}

func wireName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return fld.Name
}

// FormatValidationErrors builds the VALIDATION_ERROR envelope. Bind errors
// that are not field errors, such as malformed JSON, produce no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse(requestID, nil)
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return dto.NewValidationErrorResponse(requestID, details)
}

// HandleValidationError aborts with 400 and the validation envelope
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func fieldMessage(fe validator.FieldError) string {
	tag := fe.Tag()
	if p, ok := patternTags[tag]; ok {
		return p.hint
	}
	if tag == "min" || tag == "max" {
		bound := "at least"
		if tag == "max" {
			bound = "at most"
		}
		msg := "Must be " + bound + " " + fe.Param()
		if fe.Kind() == reflect.String {
			msg += " characters"
		}
		return msg
	}
	msg, ok := tagMessages[tag]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}
