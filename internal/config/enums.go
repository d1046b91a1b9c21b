package config

import "strings"

// ValidityMode selects how a cached bringup record is judged up to date.
type ValidityMode string

const (
	ValidityMtime       ValidityMode = "mtime"
	ValidityFingerprint ValidityMode = "fingerprint"
)

// NormalizeValidityMode converts user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeValidityMode(raw string) ValidityMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ValidityMtime):
		return ValidityMtime
	case string(ValidityFingerprint):
		return ValidityFingerprint
	default:
		return ""
	}
}

// ReviewProvider enumerates supported review services.
type ReviewProvider string

const (
	ProviderOpenAI ReviewProvider = "openai"
	ProviderGemini ReviewProvider = "gemini"
)

// NormalizeReviewProvider converts user input into a typed provider, returning empty string for unknown.
func NormalizeReviewProvider(raw string) ReviewProvider {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ProviderOpenAI):
		return ProviderOpenAI
	case string(ProviderGemini), "google":
		return ProviderGemini
	default:
		return ""
	}
}

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}
