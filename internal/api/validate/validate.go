package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

var (
	mobileRe = regexp.MustCompile(`^01[3-9]\d{8}$`)
	nidRe    = regexp.MustCompile(`^\d{10}$`)
	pinRe    = regexp.MustCompile(`^\d{4,6}$`)
)

var messages = map[string]string{
	"required": "required",
	"email":    "invalid email format",
	"mobile":   "invalid mobile number format",
	"nid":      "NID must be 10 digits",
	"pin":      "PIN must be 4 to 6 digits",
	"oneof":    "must be one of: ",
	"gt":       "must be greater than ",
}

// Validator checks request structs using `validate` tags. Field names in
// errors follow the json tags.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	register := func(tag string, re *regexp.Regexp) {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	register("mobile", mobileRe)
	register("nid", nidRe)
	register("pin", pinRe)
	return &Validator{v: v}
}

// Struct returns Errs for invalid input, nil otherwise.
func (x *Validator) Struct(s any) error {
	err := x.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errs, 0, len(ves))
	for _, fe := range ves {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "failed on '" + fe.Tag() + "'"
		} else if fe.Param() != "" && strings.HasSuffix(msg, " ") {
			msg += fe.Param()
		}
		out = append(out, ErrField{Field: fe.Field(), Msg: msg})
	}
	return out
}
