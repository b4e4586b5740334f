package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// ValidationError points at the file, position or key that is wrong.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

// configValidator reports fields by their koanf key and knows the httpurl tag.
func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return isHTTPURL(fl.Field().String())
		})
		structCheck = v
	})
	return structCheck
}

// ValidateYAMLSyntax checks the file parses as YAML. Missing and empty files
// are fine; they leave the defaults in place.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	switch {
	case os.IsNotExist(err):
		return nil
	case os.IsPermission(err):
		return &ValidationError{FilePath: filePath, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return ValidateYAMLSyntaxFromBytes(data, filePath)
}

// ValidateYAMLSyntaxFromBytes is ValidateYAMLSyntax for data already read.
func ValidateYAMLSyntaxFromBytes(data []byte, filePath string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}
	var typeError *yaml.TypeError
	if errors.As(err, &typeError) {
		return &ValidationError{FilePath: filePath, Message: strings.Join(typeError.Errors, "; ")}
	}
	line, column := extractLineColumn(err.Error())
	return &ValidationError{
		FilePath: filePath,
		Line:     line,
		Column:   column,
		Message:  cleanYAMLError(err.Error()),
	}
}

// ValidateConfigValues checks field constraints and then the rules that span
// several fields. The first problem found is returned.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := configValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{
				FilePath: filePath,
				Field:    configKey(fieldErrs[0].Namespace()),
				Message:  formatValidationError(fieldErrs[0]),
			}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return validateConsistency(cfg, filePath)
}

func validateConsistency(cfg *Configuration, filePath string) error {
	var sources []string
	for _, src := range []struct{ key, value string }{
		{"source.file", cfg.Source.File},
		{"source.uri", cfg.Source.URI},
		{"broker.url", cfg.Broker.URL},
	} {
		if src.value != "" {
			sources = append(sources, src.key)
		}
	}
	if len(sources) > 1 {
		return &ValidationError{
			FilePath: filePath,
			Field:    strings.Join(sources, ", "),
			Message:  "only one contract source may be set",
		}
	}

	for _, creds := range []struct{ prefix, user, token string }{
		{"source", cfg.Source.Username, cfg.Source.Token},
		{"broker", cfg.Broker.Username, cfg.Broker.Token},
	} {
		if creds.token != "" && creds.user != "" {
			return &ValidationError{
				FilePath: filePath,
				Field:    creds.prefix + ".token",
				Message:  "cannot be combined with " + creds.prefix + ".username",
			}
		}
	}

	if cfg.LogLevel != "" {
		if _, err := verifier.ParseLogLevel(cfg.LogLevel); err != nil {
			return &ValidationError{
				FilePath: filePath,
				Field:    "log_level",
				Message:  "must be one of " + strings.Join(logLevelNames(), ", "),
			}
		}
	}
	return nil
}

func logLevelNames() []string {
	names := make([]string, 0, len(verifier.ValidLogLevels))
	for _, l := range verifier.ValidLogLevels {
		names = append(names, string(l))
	}
	return names
}

// extractLineColumn reads the position out of "yaml: line 5: ..." messages.
func extractLineColumn(errMsg string) (line, column int) {
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 1
	}
	return 0, 0
}

// cleanYAMLError drops the "yaml: line X:" prefix.
func cleanYAMLError(errMsg string) string {
	if !strings.HasPrefix(errMsg, "yaml:") {
		return errMsg
	}
	if idx := strings.LastIndex(errMsg, ": "); idx > 0 {
		return errMsg[idx+2:]
	}
	return errMsg
}

func formatValidationError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fieldErr.Param()
	case "max":
		return "must be at most " + fieldErr.Param()
	case "httpurl":
		return "must be an absolute http(s) URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fieldErr.Param(), " ", ", ")
	default:
		return "failed validation: " + fieldErr.Tag()
	}
}

// configKey turns "Configuration.provider.base_url" into "provider.base_url".
func configKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// isHTTPURL reports whether s is an absolute http or https URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
