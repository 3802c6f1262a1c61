package common

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CommonFlags contains flags that are shared across commands
type CommonFlags struct {
	EnvFile    *string
	ConfigFile *string
	LogLevel   *string
	Version    *bool
	Help       *bool
}

// RegisterCommonFlags registers common flags on fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		EnvFile:    fs.String("env", ".env", "Environment file path"),
		ConfigFile: fs.String("config", "", "YAML configuration file"),
		LogLevel:   fs.String("log-level", "", "Log level override (debug, info, warn, error)"),
		Version:    fs.Bool("version", false, "Show version information"),
		Help:       fs.Bool("help", false, "Show help information"),
	}
}

// FlagValidator collects flag validation errors
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// LogLevels are the accepted -log-level values
var LogLevels = []string{"debug", "info", "warn", "error"}

// ValidateCommon checks the shared flags: the config file must exist when
// given and the log level must be a known one.
func (v *FlagValidator) ValidateCommon(flags *CommonFlags) *FlagValidator {
	v.ValidateFile("config", *flags.ConfigFile, false)
	if *flags.LogLevel != "" {
		v.ValidateChoice("log-level", strings.ToLower(*flags.LogLevel), LogLevels)
	}
	return v
}

// UsageFormatter formats flag usage
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information for fs
func (u *UsageFormatter) PrintUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

	if len(u.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Fprintf(w, "  # %s\n", example.Description)
			fmt.Fprintf(w, "  %s\n\n", example.Command)
		}
	}

	fmt.Fprintf(w, "OPTIONS:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// CheckHelpAndVersion handles -help and -version; true means exit now
func CheckHelpAndVersion(appName string, flags *CommonFlags, fs *flag.FlagSet, formatter *UsageFormatter) bool {
	if *flags.Version {
		PrintVersion(os.Stdout, appName)
		return true
	}

	if *flags.Help {
		formatter.PrintUsage(os.Stdout, fs)
		return true
	}

	return false
}
