package validator

import (
	"fmt"
	"reflect"
	"strings"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/utils"

	govalidator "github.com/go-playground/validator/v10"
)

// New returns a validator with the domain tags registered:
// username, slug, notfuture, score and role.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	must := func(tag string, fn govalidator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("username", ValidateUsername)
	must("slug", ValidateSlug)
	must("notfuture", ValidateNotFutureYear)
	must("score", ValidateScore)
	must("role", ValidateRole)
	return v
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// baseField strips the element index validator appends for dive errors.
func baseField(name string) string {
	name, _, _ = strings.Cut(name, "[")
	return name
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	origFieldName = baseField(origFieldName)
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	fieldName = utils.CamelToSnake(origFieldName)
	for _, key := range []string{"json", "schema"} {
		if tag := field.Tag.Get(key); tag != "" && tag != "-" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		validationErrs = ProcessValidationErrors(obj, err.(govalidator.ValidationErrors))
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := structType(obj)
	field, found := t.FieldByName(baseField(err.StructField()))
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum length is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum length is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "lt":
			errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
		case "gt":
			errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "unique":
			errorMsg = "Value must not contain duplicate values"
		case "email":
			errorMsg = "Value must be a valid email address"
		case "username":
			errorMsg = "Username may contain only letters, digits and _.@+- and must not be 'me'"
		case "slug":
			errorMsg = "Slug may contain only letters, digits, - and _"
		case "notfuture":
			errorMsg = fmt.Sprintf("Year must not be later than %d", rules.Now().Year())
		case "score":
			errorMsg = fmt.Sprintf("Score must be between %d and %d", rules.MinScore, rules.MaxScore)
		case "role":
			errorMsg = "Value should be one of user, moderator, admin"
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

func ValidateUsername(fl govalidator.FieldLevel) bool {
	return rules.ValidateUsername(fl.Field().String()) == nil
}

func ValidateSlug(fl govalidator.FieldLevel) bool {
	return rules.ValidateSlug(fl.Field().String()) == nil
}

func ValidateNotFutureYear(fl govalidator.FieldLevel) bool {
	return rules.ValidateYear(int32(fl.Field().Int())) == nil
}

func ValidateScore(fl govalidator.FieldLevel) bool {
	return rules.ValidateScore(int(fl.Field().Int())) == nil
}

// ValidateRole accepts the roles an admin may assign. super_user is only
// granted out of band.
func ValidateRole(fl govalidator.FieldLevel) bool {
	role := models.Role(fl.Field().String())
	return role.Valid() && role != models.RoleSuperUser
}
