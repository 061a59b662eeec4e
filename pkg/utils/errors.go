package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrSource           = errors.New("source adapter error")          // Adapter failed to produce a page
	ErrFilesystem       = errors.New("filesystem error")              // Wraps os errors on sitemap files
	ErrPing             = errors.New("search engine ping failed")     // Logged only, never returned from a run
	ErrParsing          = errors.New("parsing error")                 // Wraps date/URL/XML parsing errors
	ErrDatabase         = errors.New("database error")                // Wraps badger errors
	ErrConfigValidation = errors.New("configuration validation error")
	ErrInvalidBatch     = errors.New("batch exceeds page size")
	ErrRetryFailed      = errors.New("request failed after retries")
	ErrClientHTTPError  = errors.New("client HTTP error")
	ErrServerHTTPError  = errors.New("server HTTP error")
	ErrOtherHTTPError   = errors.New("unexpected HTTP status")
)

// CategorizeError maps an error to a predefined category string for logging and run records.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrInvalidBatch):
		return "Source_InvalidBatch"
	case errors.Is(err, ErrSource):
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "Source_Cancelled"
		}
		return "Source_Other"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrPing):
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return "Ping_Timeout"
		}
		if errors.Is(err, ErrClientHTTPError) {
			return "Ping_ClientHTTP"
		}
		if errors.Is(err, ErrServerHTTPError) {
			return "Ping_ServerHTTP"
		}
		if errors.Is(err, ErrRetryFailed) {
			return "Ping_RetryFailed"
		}
		return "Ping_Other"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "date") {
			return "Data_ParsingDate"
		}
		if strings.Contains(errMsg, "URL") {
			return "Data_ParsingURL"
		}
		if strings.Contains(errMsg, "XML") {
			return "Data_ParsingXML"
		}
		return "Data_ParsingOther"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrRetryFailed):
		return "HTTP_RetryFailed"
	case errors.Is(err, ErrClientHTTPError):
		return "HTTP_Client"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_Server"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_Other"
	}

	// --- Fallback checks for common underlying error types ---

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}
