package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the award search system.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidQuery indicates that a search query failed validation.
	// No network activity is performed for an invalid query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidConfig indicates that an airline configuration failed validation.
	ErrInvalidConfig = errors.New("invalid airline config")

	// ErrUnknownEngine indicates that no site is registered under the requested id.
	ErrUnknownEngine = errors.New("unknown engine")

	// ErrNoSearcher indicates that a site has no searcher factory registered.
	ErrNoSearcher = errors.New("no searcher registered")

	// ErrNotInitialized indicates that an engine was used before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrNavigation indicates a page load returned a non-OK HTTP status.
	ErrNavigation = errors.New("navigation failed")

	// ErrTimeout indicates that waiting for a page or page state timed out.
	ErrTimeout = errors.New("timed out")

	// ErrLoginFailed indicates the login loop gave up without reaching a logged-in state.
	ErrLoginFailed = errors.New("login failed")

	// ErrUnknownAirport indicates that an airport has no known timezone.
	ErrUnknownAirport = errors.New("unknown airport")
)

// Credential errors are raised by a site's login step. They abort the
// login loop immediately and should stop further queries against the account.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBlockedAccount     = errors.New("account blocked")
	ErrBotDetected        = errors.New("bot detected")
)

// Integrity errors indicate a parsing or data bug. They fail the parse pass
// they occur in and are never swallowed.
var (
	ErrOrphanedFlight   = errors.New("orphaned flight")
	ErrOrphanedAward    = errors.New("orphaned award")
	ErrFlightMismatch   = errors.New("flight schedule mismatch")
	ErrNegativeDuration = errors.New("negative duration")
)

// ValidationError represents a validation failure for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidQuery.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuery
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SearcherError represents a failure inside a site automation: a bad HTTP
// status, a page that never reached the expected state, an unexpected layout.
// Searcher errors are recorded on Results rather than returned.
type SearcherError struct {
	Engine string
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *SearcherError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("searcher %s: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("searcher %s: %s: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SearcherError) Unwrap() error {
	return e.Err
}

// NewSearcherError creates a new SearcherError.
func NewSearcherError(engine, op string, err error) *SearcherError {
	return &SearcherError{
		Engine: engine,
		Op:     op,
		Err:    err,
	}
}

// NavigationError describes a page load that returned a non-OK status.
type NavigationError struct {
	URL    string
	Status int
}

// Error implements the error interface.
func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s: unexpected status %d", e.URL, e.Status)
}

// Unwrap makes every NavigationError match ErrNavigation.
func (e *NavigationError) Unwrap() error {
	return ErrNavigation
}

// ParserError is raised by a site parser when captured content is malformed.
type ParserError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("parser %s: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParserError) Unwrap() error {
	return e.Err
}

// NewParserError creates a new ParserError.
func NewParserError(engine string, err error) *ParserError {
	return &ParserError{
		Engine: engine,
		Err:    err,
	}
}

// IntegrityError wraps one of the integrity sentinels with detail about
// the offending flight or award.
type IntegrityError struct {
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

// Unwrap returns the underlying sentinel.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func newIntegrityError(err error, format string, args ...interface{}) *IntegrityError {
	return &IntegrityError{
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}

// ErrorKind classifies an error for propagation decisions.
type ErrorKind int

// Error kinds, see Classify.
const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindSearcher
	KindCredential
	KindParser
	KindIntegrity
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSearcher:
		return "searcher"
	case KindCredential:
		return "credential"
	case KindParser:
		return "parser"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Classify returns the kind of the given error. Credential errors win over
// searcher errors so that a credential failure wrapped by a site is still
// treated as fatal for the account.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case IsCredentialError(err):
		return KindCredential
	case errors.Is(err, ErrInvalidQuery):
		return KindValidation
	case IsIntegrityError(err):
		return KindIntegrity
	case IsParserError(err):
		return KindParser
	case IsSearcherError(err):
		return KindSearcher
	default:
		return KindUnknown
	}
}

// IsValidationError checks if the error is a query validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsCredentialError checks if the error is one of the credential errors.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrBlockedAccount) ||
		errors.Is(err, ErrBotDetected)
}

// IsSearcherError checks if the error belongs to the searcher kind.
// Navigation failures and timeouts are searcher errors even when unwrapped.
func IsSearcherError(err error) bool {
	var searcherErr *SearcherError
	return errors.As(err, &searcherErr) ||
		errors.Is(err, ErrNavigation) ||
		errors.Is(err, ErrTimeout)
}

// IsParserError checks if the error is a ParserError.
func IsParserError(err error) bool {
	var parserErr *ParserError
	return errors.As(err, &parserErr)
}

// IsIntegrityError checks if the error is a structural integrity error.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrOrphanedFlight) ||
		errors.Is(err, ErrOrphanedAward) ||
		errors.Is(err, ErrFlightMismatch) ||
		errors.Is(err, ErrNegativeDuration)
}
